package storage

import "animalitos-stats/models"

// RecordSource is anything a report can be computed from.
type RecordSource interface {
	Records() (*models.Dataset, error)
}

// DrawWriter is the interface any draw storage backend must satisfy.
// Write returns the number of draws actually stored.
type DrawWriter interface {
	Write(draws []*models.Draw) (int, error)
	Close() error
}
