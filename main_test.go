package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"animalitos-stats/models"
	"animalitos-stats/storage"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"not found", &models.NotFoundError{Path: "x.csv", Err: os.ErrNotExist}, exitNotFound},
		{"wrapped parse", fmt.Errorf("load: %w", &models.ParseError{Path: "x.csv", Line: 3, Err: errors.New("bad")}), exitParse},
		{"schema", &models.SchemaError{Source: "x.csv", Column: "animal"}, exitSchema},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunReportExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want int
	}{
		{"ok", func(t *testing.T) []string {
			return []string{"--input", writeInput(t, "animal,hour\nfox,08\nowl,09\n")}
		}, exitOK},
		{"explicit subcommand grouped", func(t *testing.T) []string {
			return []string{"report", "--group-by", "hour", "--input", writeInput(t, "animal,hour\nfox,08\n")}
		}, exitOK},
		{"empty data", func(t *testing.T) []string {
			return []string{"--input", writeInput(t, "animal,hour\n")}
		}, exitOK},
		{"unparseable date", func(t *testing.T) []string {
			return []string{"--input", writeInput(t, "animal,date\nfox,2024-01-01T08:00:00\nowl,12/25/2024\ncat,someday\n")}
		}, exitOK},
		{"missing file", func(t *testing.T) []string {
			return []string{"--input", filepath.Join(t.TempDir(), "none.csv")}
		}, exitNotFound},
		{"malformed row", func(t *testing.T) []string {
			return []string{"--input", writeInput(t, "animal,hour\nfox\n")}
		}, exitParse},
		{"no animal column", func(t *testing.T) []string {
			return []string{"--input", writeInput(t, "hour\n08\n")}
		}, exitSchema},
		{"unknown group column", func(t *testing.T) []string {
			return []string{"--group-by", "weekday", "--input", writeInput(t, "animal\nfox\n")}
		}, exitSchema},
		{"bad mode", func(t *testing.T) []string {
			return []string{"--mode", "pie", "--input", writeInput(t, "animal\nfox\n")}
		}, exitFailure},
		{"unknown flag", func(t *testing.T) []string {
			return []string{"--colour"}
		}, exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args(t)); got != tt.want {
				t.Errorf("run: got exit %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunReportChartMode(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.png")
	args := []string{"--mode", "chart", "--chart-out", out, "--input", writeInput(t, "animal\nfox\nowl\nfox\n")}

	if got := run(args); got != exitOK {
		t.Fatalf("run: got exit %d, want 0", got)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("chart not written: %v", err)
	}
}

func TestRunScrapeRejectsBadWindow(t *testing.T) {
	if got := run([]string{"scrape", "--from", "2024-02-01", "--to", "2024-01-01"}); got != exitFailure {
		t.Errorf("run: got exit %d, want %d", got, exitFailure)
	}
}

func TestRunReportFromSQLiteArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draws.db")
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = store.Write([]*models.Draw{
		{RunID: "r1", Animal: "Delfin", Hour: "08:00 AM", Date: day},
		{RunID: "r1", Animal: "Ballena", Hour: "09:00 AM", Date: day},
	})
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	t.Setenv("ANIMALITOS_SQLITE_PATH", path)
	if got := run([]string{"report", "--source", "sqlite", "--group-by", "hour"}); got != exitOK {
		t.Errorf("run: got exit %d, want 0", got)
	}
}
