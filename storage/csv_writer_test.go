package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"animalitos-stats/models"
)

func sampleDraws() []*models.Draw {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Draw{
		{RunID: "run-1", Animal: "Delfin", Hour: "08:00 AM", Date: day},
		{RunID: "run-1", Animal: "Ballena", Hour: "09:00 AM", Date: day},
		{RunID: "run-1", Animal: "Delfin", Hour: "08:00 AM", Date: day.AddDate(0, 0, 1)},
	}
}

func TestCSVWriterProducesReadableResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	n, err := w.Write(sampleDraws())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Errorf("written: got %d, want 3", n)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "animal,hour,date\n" +
		"Delfin,08:00 AM,2024-03-01\n" +
		"Ballena,09:00 AM,2024-03-01\n" +
		"Delfin,08:00 AM,2024-03-02\n"
	if string(raw) != want {
		t.Errorf("file content:\n%s\nwant:\n%s", raw, want)
	}

	ds, err := NewCSVReader(path).Records()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(ds.Records) != 3 {
		t.Errorf("records: got %d, want 3", len(ds.Records))
	}
}
