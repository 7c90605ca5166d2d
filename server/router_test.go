package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animalitos-stats/models"
	"animalitos-stats/services"
	"animalitos-stats/storage"
	"animalitos-stats/utils"
)

type failingSource struct{ err error }

func (f failingSource) Records() (*models.Dataset, error) { return nil, f.err }

func newTestRouter(t *testing.T, source storage.RecordSource) http.Handler {
	t.Helper()
	logger := utils.NewNopLogger()
	return CreateRouter(services.NewReporter(logger), source, logger)
}

func csvSource(t *testing.T, content string) storage.RecordSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return storage.NewCSVReader(path)
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

const draws = "animal,hour\nfox,08\nowl,08\nfox,09\n"

func TestReportJSON(t *testing.T) {
	h := newTestRouter(t, csvSource(t, draws))

	res := get(h, "/report")

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var report models.FrequencyReport
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Records)
	require.Len(t, report.Overall.Shares, 2)
	assert.Equal(t, "fox", report.Overall.Shares[0].Category)
	assert.Equal(t, 2, report.Overall.Shares[0].Count)
}

func TestReportTextGrouped(t *testing.T) {
	h := newTestRouter(t, csvSource(t, draws))

	res := get(h, "/report?group_by=hour&format=text")

	require.Equal(t, http.StatusOK, res.Code)
	want := "hour=08 (n=2)\n  fox: 50.00%\n  owl: 50.00%\nhour=09 (n=1)\n  fox: 100.00%\n"
	assert.Equal(t, want, res.Body.String())
}

func TestReportEmptyFileIsOK(t *testing.T) {
	h := newTestRouter(t, csvSource(t, "animal,hour\n"))

	res := get(h, "/report?format=text")

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.Body.String())
}

func TestReportErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		source storage.RecordSource
		target string
		want   int
	}{
		{"unknown format", failingSource{}, "/report?format=xml", http.StatusBadRequest},
		{"missing file", storage.NewCSVReader(filepath.Join(t.TempDir(), "none.csv")), "/report", http.StatusNotFound},
		{"malformed row", csvSource(t, "animal,hour\nfox\n"), "/report", http.StatusUnprocessableEntity},
		{"unknown group column", csvSource(t, draws), "/report?group_by=weekday", http.StatusUnprocessableEntity},
		{"source failure", failingSource{err: errors.New("connection refused")}, "/report", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := get(newTestRouter(t, tt.source), tt.target)

			assert.Equal(t, tt.want, res.Code)
			var msg ErrorMessage
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &msg))
			assert.NotEmpty(t, msg.Message)
		})
	}
}

func TestHealthz(t *testing.T) {
	res := get(newTestRouter(t, failingSource{}), "/healthz")

	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
}

func TestReportRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, failingSource{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/report", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
