package models

import (
	"strings"
	"time"
)

// DateLayout is the canonical date format used in results.csv and the draw archive.
const DateLayout = "2006-01-02"

// Column names recognised in the input file.
const (
	ColumnAnimal = "animal"
	ColumnHour   = "hour"
	ColumnDate   = "date"
)

// RawDraw holds one unprocessed result cell scraped from the results page.
// This is cleaned before being written to CSV or the archive.
type RawDraw struct {
	Animal    string
	Hour      string
	Date      string
	SourceURL string
	ScrapedAt time.Time
}

// Draw is the cleaned, validated result ready for CSV or SQL storage.
type Draw struct {
	ID        int64
	RunID     string
	Animal    string
	Hour      string
	Date      time.Time
	CreatedAt time.Time
}

// Record is one row of report input. Fields holds every column of the row as read.
type Record struct {
	Line   int
	Animal string
	Hour   string
	Date   time.Time
	Fields map[string]string
}

// Value returns the raw value of the named field, with the well-known columns
// resolved from the typed attributes.
func (r Record) Value(field string) string {
	switch field {
	case ColumnAnimal:
		return r.Animal
	case ColumnHour:
		return r.Hour
	case ColumnDate:
		if r.Date.IsZero() {
			return ""
		}
		return r.Date.Format(DateLayout)
	}
	return r.Fields[field]
}

// InvalidDate reports whether the row has a date cell that could not be parsed.
func (r Record) InvalidDate() bool {
	raw, ok := r.Fields[ColumnDate]
	return ok && r.Date.IsZero() && !IsNull(raw)
}

// Dataset is the loaded table: header order plus the records in file order.
type Dataset struct {
	Source  string
	Columns []string
	Records []Record
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// nullMarkers are the cell values treated as missing, matching what common
// tabular readers consider NA.
var nullMarkers = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
}

// IsNull reports whether a raw cell value should be treated as missing.
func IsNull(v string) bool {
	_, ok := nullMarkers[strings.TrimSpace(v)]
	return ok
}

// dateLayouts are the accepted spellings of the date column, most common first.
// Slash dates are read month first; a value that only makes sense day first
// (13/01/2024) falls through to the day-first layout.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"1/2/2006",
	"2/1/2006",
}

// ParseDate parses a date cell in any of the accepted layouts.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
