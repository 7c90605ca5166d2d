package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animalitos-stats/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVReaderLoadsRecordsInFileOrder(t *testing.T) {
	path := writeFile(t, "animal,hour,date\n"+
		"cat,08,2024-03-01\n"+
		"dog,08,2024/03/02\n"+
		" owl ,09,\n")

	ds, err := NewCSVReader(path).Records()
	require.NoError(t, err)

	assert.Equal(t, []string{"animal", "hour", "date"}, ds.Columns)
	require.Len(t, ds.Records, 3)

	assert.Equal(t, "cat", ds.Records[0].Animal)
	assert.Equal(t, "08", ds.Records[0].Hour)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ds.Records[0].Date)
	assert.Equal(t, 2, ds.Records[0].Line)

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), ds.Records[1].Date)

	assert.Equal(t, "owl", ds.Records[2].Animal)
	assert.True(t, ds.Records[2].Date.IsZero())
	assert.Equal(t, " owl ", ds.Records[2].Fields["animal"])
}

func TestCSVReaderNullCategories(t *testing.T) {
	path := writeFile(t, "animal,hour\ncat,08\n,08\nNaN,09\nnull,10\n")

	ds, err := NewCSVReader(path).Records()
	require.NoError(t, err)
	require.Len(t, ds.Records, 4)

	for _, r := range ds.Records[1:] {
		assert.Empty(t, r.Animal, "line %d should be null", r.Line)
	}
}

func TestCSVReaderHeaderOnly(t *testing.T) {
	path := writeFile(t, "animal,hour,date\n")

	ds, err := NewCSVReader(path).Records()
	require.NoError(t, err)
	assert.Empty(t, ds.Records)
}

func TestCSVReaderTrimsBOMAndSpaces(t *testing.T) {
	path := writeFile(t, "\ufeff animal , hour\nfox,1\n")

	ds, err := NewCSVReader(path).Records()
	require.NoError(t, err)
	assert.Equal(t, []string{"animal", "hour"}, ds.Columns)
	assert.Equal(t, "fox", ds.Records[0].Animal)
}

func TestCSVReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "empty file",
			content: "",
			check: func(t *testing.T, err error) {
				var pe *models.ParseError
				assert.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
			},
		},
		{
			name:    "inconsistent column count",
			content: "animal,hour\ncat,08\ndog\n",
			check: func(t *testing.T, err error) {
				var pe *models.ParseError
				require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
				assert.Equal(t, 3, pe.Line)
			},
		},
		{
			name:    "duplicate column",
			content: "animal,animal\ncat,dog\n",
			check: func(t *testing.T, err error) {
				var pe *models.ParseError
				assert.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
			},
		},
		{
			name:    "missing animal column",
			content: "Animal,hour\ncat,08\n",
			check: func(t *testing.T, err error) {
				var se *models.SchemaError
				require.True(t, errors.As(err, &se), "want SchemaError, got %v", err)
				assert.Equal(t, "animal", se.Column)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVReader(writeFile(t, tt.content)).Records()
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCSVReaderDateFormats(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want time.Time
	}{
		{"iso date", "2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"iso datetime without offset", "2024-01-01T08:00:00", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{"iso datetime without seconds", "2024-01-01 08:00", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{"slash date month first", "01/02/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"slash date only valid month first", "12/25/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"slash date only valid day first", "25/12/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"unpadded slash date", "3/7/2024", time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewCSVReader(writeFile(t, "animal,date\ncat,"+tt.cell+"\n")).Records()
			require.NoError(t, err)
			require.Len(t, ds.Records, 1)

			rec := ds.Records[0]
			assert.True(t, tt.want.Equal(rec.Date), "got %v, want %v", rec.Date, tt.want)
			assert.False(t, rec.InvalidDate())
		})
	}
}

func TestCSVReaderKeepsUnparseableDates(t *testing.T) {
	path := writeFile(t, "animal,date\ncat,yesterday\ndog,2024-01-02\nowl,\n")

	ds, err := NewCSVReader(path).Records()
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	bad := ds.Records[0]
	assert.Equal(t, "cat", bad.Animal)
	assert.True(t, bad.Date.IsZero())
	assert.Equal(t, "yesterday", bad.Fields["date"])
	assert.True(t, bad.InvalidDate())
	assert.Equal(t, "", bad.Value("date"))

	assert.False(t, ds.Records[1].InvalidDate())
	assert.False(t, ds.Records[2].InvalidDate(), "an empty date is null, not invalid")
}

func TestCSVReaderNotFound(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "missing.csv")).Records()

	var nf *models.NotFoundError
	require.True(t, errors.As(err, &nf), "want NotFoundError, got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
