package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"animalitos-stats/models"
)

// dialect captures the few places where PostgreSQL and SQLite differ.
type dialect struct {
	name        string
	schema      []string
	placeholder func(n int) string
}

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS draws (
			id          SERIAL       PRIMARY KEY,
			run_id      VARCHAR(36)  NOT NULL,
			animal      TEXT         NOT NULL,
			hour        VARCHAR(32)  NOT NULL,
			draw_date   VARCHAR(10)  NOT NULL,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (draw_date, hour)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_draws_animal ON draws(animal)`,
		`CREATE INDEX IF NOT EXISTS idx_draws_run    ON draws(run_id)`,
	},
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS draws (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT    NOT NULL,
			animal      TEXT    NOT NULL,
			hour        TEXT    NOT NULL,
			draw_date   TEXT    NOT NULL,
			created_at  TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (draw_date, hour)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_draws_animal ON draws(animal)`,
		`CREATE INDEX IF NOT EXISTS idx_draws_run    ON draws(run_id)`,
	},
	placeholder: func(int) string { return "?" },
}

// SQLStore persists cleaned draws to PostgreSQL or SQLite and serves them
// back as report input.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	source  string
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: postgres ping failed after retries: %w", err)
	}

	return newSQLStore(db, postgresDialect, "postgres:draws")
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("store: create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// a single connection keeps writers from tripping over SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return newSQLStore(db, sqliteDialect, "sqlite:"+path)
}

func newSQLStore(db *sql.DB, d dialect, source string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d, source: source}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate %s: %w", d.name, err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Write batch-inserts draws. A draw whose (date, hour) slot is already stored
// is skipped, so re-running a scrape over the same weeks is harmless.
func (s *SQLStore) Write(draws []*models.Draw) (int, error) {
	const batchSize = 50

	inserted := 0
	for i := 0; i < len(draws); i += batchSize {
		end := i + batchSize
		if end > len(draws) {
			end = len(draws)
		}
		n, err := s.insertBatch(draws[i:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (s *SQLStore) insertBatch(batch []*models.Draw) (int, error) {
	const cols = 4
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, d := range batch {
		base := idx * cols
		ph := make([]string, cols)
		for c := 0; c < cols; c++ {
			ph[c] = s.dialect.placeholder(base + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, d.RunID, d.Animal, d.Hour, d.Date.Format(models.DateLayout))
	}

	query := fmt.Sprintf(`
		INSERT INTO draws (run_id, animal, hour, draw_date)
		VALUES %s
		ON CONFLICT (draw_date, hour) DO NOTHING
	`, strings.Join(valueStrings, ","))

	res, err := s.db.Exec(query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("store: insert batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return int(n), nil
}

// Records returns every stored draw in insertion order, as report input.
func (s *SQLStore) Records() (*models.Dataset, error) {
	rows, err := s.db.Query(`
		SELECT id, animal, hour, draw_date
		FROM draws
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: fetch draws: %w", err)
	}
	defer rows.Close()

	ds := &models.Dataset{
		Source:  s.source,
		Columns: []string{models.ColumnAnimal, models.ColumnHour, models.ColumnDate},
	}
	for rows.Next() {
		var (
			id                    int64
			animal, hour, drawDay string
		)
		if err := rows.Scan(&id, &animal, &hour, &drawDay); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}

		rec := models.Record{
			Line:   int(id),
			Animal: strings.TrimSpace(animal),
			Hour:   strings.TrimSpace(hour),
			Fields: map[string]string{
				models.ColumnAnimal: animal,
				models.ColumnHour:   hour,
				models.ColumnDate:   drawDay,
			},
		}
		if d, err := time.Parse(models.DateLayout, drawDay); err == nil {
			rec.Date = d
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate rows: %w", err)
	}
	return ds, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
