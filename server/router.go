// Package server exposes frequency reports over HTTP.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"animalitos-stats/services"
	"animalitos-stats/storage"
	"animalitos-stats/utils"
)

func CreateRouter(
	reporter *services.Reporter,
	source storage.RecordSource,
	logger *utils.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle("/report", ReportHandler(reporter, source, logger)).Methods(http.MethodGet)
	r.Handle("/healthz", HealthHandler()).Methods(http.MethodGet)

	return r
}
