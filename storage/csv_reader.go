package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"animalitos-stats/models"
)

// CSVReader loads draw records from a delimited file with a header row.
type CSVReader struct {
	path string
}

// NewCSVReader returns a reader for the file at path. Nothing is opened until Records.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// Records reads the whole file. Every row must have as many fields as the
// header, and the header must contain the animal column. Unparseable dates
// are kept raw and do not fail the load.
func (r *CSVReader) Records() (*models.Dataset, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.NotFoundError{Path: r.path, Err: err}
		}
		return nil, fmt.Errorf("csv: open %q: %w", r.path, err)
	}
	defer f.Close()

	return r.read(f)
}

func (r *CSVReader) read(in io.Reader) (*models.Dataset, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &models.ParseError{Path: r.path, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, r.parseError(err)
	}

	columns, err := normaliseHeader(header)
	if err != nil {
		return nil, &models.ParseError{Path: r.path, Line: 1, Err: err}
	}

	ds := &models.Dataset{Source: r.path, Columns: columns}
	if !ds.HasColumn(models.ColumnAnimal) {
		return nil, &models.SchemaError{Source: r.path, Column: models.ColumnAnimal}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, r.parseError(err)
		}
		line, _ := cr.FieldPos(0)

		ds.Records = append(ds.Records, toRecord(columns, row, line))
	}

	return ds, nil
}

func (r *CSVReader) parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &models.ParseError{Path: r.path, Line: pe.Line, Err: pe.Err}
	}
	return &models.ParseError{Path: r.path, Err: err}
}

// normaliseHeader trims names and a leading byte-order mark, rejecting duplicates.
func normaliseHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = struct{}{}
		columns[i] = name
	}
	return columns, nil
}

// toRecord maps a row onto a Record. A date that does not parse leaves Date
// zero and the raw cell in Fields; see Record.InvalidDate.
func toRecord(columns, row []string, line int) models.Record {
	rec := models.Record{
		Line:   line,
		Fields: make(map[string]string, len(columns)),
	}

	for i, col := range columns {
		v := row[i]
		rec.Fields[col] = v

		switch col {
		case models.ColumnAnimal:
			rec.Animal = cleanCell(v)
		case models.ColumnHour:
			rec.Hour = cleanCell(v)
		case models.ColumnDate:
			if models.IsNull(v) {
				continue
			}
			if d, err := models.ParseDate(v); err == nil {
				rec.Date = d
			}
		}
	}
	return rec
}

// cleanCell trims a cell and maps null markers to the empty string.
func cleanCell(v string) string {
	if models.IsNull(v) {
		return ""
	}
	return strings.TrimSpace(v)
}
