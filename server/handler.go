package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"animalitos-stats/models"
	"animalitos-stats/services"
	"animalitos-stats/storage"
	"animalitos-stats/utils"
)

var ErrUnknownFormat = errors.New("format must be text or json")

// ReportHandler reloads the source on every request and answers with the
// report as JSON (default) or in the plain text layout of the CLI.
//
// Query parameters: group_by (optional column name), format (json|text).
func ReportHandler(
	reporter *services.Reporter,
	source storage.RecordSource,
	logger *utils.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("[server] %s %s", r.Method, r.URL.String())

		groupBy := r.URL.Query().Get("group_by")
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "text" {
			HttpError(w, ErrUnknownFormat.Error(), http.StatusBadRequest, logger)
			return
		}

		report, err := reporter.Run(source, groupBy)
		if err != nil {
			logger.Error("[server] Report failed: %v", err)
			HttpError(w, err.Error(), statusFor(err), logger)
			return
		}

		if format == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if _, err := io.WriteString(w, services.FormatText(report)); err != nil {
				logger.Error("[server] Error writing response: %v", err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.Error("[server] Error encoding response: %v", err)
		}
	}
}

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`+"\n")
	}
}

func statusFor(err error) int {
	var (
		notFound *models.NotFoundError
		parse    *models.ParseError
		schema   *models.SchemaError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &parse), errors.As(err, &schema):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
