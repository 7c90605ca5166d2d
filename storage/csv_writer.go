package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"animalitos-stats/models"
)

// CSVWriter writes cleaned draws in the results.csv layout (animal,hour,date).
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{models.ColumnAnimal, models.ColumnHour, models.ColumnDate}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends the draws in the given order.
func (c *CSVWriter) Write(draws []*models.Draw) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, d := range draws {
		row := []string{d.Animal, d.Hour, d.Date.Format(models.DateLayout)}
		if err := c.writer.Write(row); err != nil {
			return i, fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return 0, fmt.Errorf("csv: flush: %w", err)
	}
	return len(draws), nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}
