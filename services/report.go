package services

import (
	"errors"
	"fmt"

	"animalitos-stats/models"
	"animalitos-stats/storage"
	"animalitos-stats/utils"
)

// Sink receives a finished report. Rendering is the only thing a sink does.
type Sink interface {
	Render(report *models.FrequencyReport) error
}

// ReportService turns a loaded dataset into a FrequencyReport.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate counts animals over the whole dataset and, when groupBy is set,
// per value of that column. It returns *models.EmptyDataError alongside a
// valid empty report when nothing could be counted.
func (s *ReportService) Generate(ds *models.Dataset, groupBy string) (*models.FrequencyReport, error) {
	if groupBy != "" && !ds.HasColumn(groupBy) {
		return nil, &models.SchemaError{Source: ds.Source, Column: groupBy}
	}

	overall := Count(ds.Records)
	report := &models.FrequencyReport{
		Source:  ds.Source,
		GroupBy: groupBy,
		Records: len(ds.Records),
		Skipped: overall.Skipped,
		Overall: Breakdown(overall),
	}

	for _, rec := range ds.Records {
		if rec.InvalidDate() {
			report.BadDates++
		}
	}
	if report.BadDates > 0 {
		s.logger.Warn("[report] %d records have a date that could not be parsed; they count overall but have no date key",
			report.BadDates)
	}

	if overall.Skipped > 0 {
		s.logger.Warn("[report] %d of %d records have no animal and were skipped",
			overall.Skipped, len(ds.Records))
	}

	if groupBy != "" {
		tables, missing := GroupByKey(ds.Records, groupBy)
		report.MissingKey = missing
		if missing > 0 {
			s.logger.Warn("[report] %d records have no %q value and were left out of the groups",
				missing, groupBy)
		}

		keys := make([]string, 0, len(tables))
		for k := range tables {
			keys = append(keys, k)
		}
		SortKeys(keys)

		for _, k := range keys {
			b := Breakdown(tables[k])
			if b.Total == 0 {
				continue
			}
			report.Groups = append(report.Groups, models.GroupBreakdown{Key: k, Breakdown: b})
		}
	}

	s.logger.Debug("[report] %s: %d records, %d categories, %d groups",
		ds.Source, len(ds.Records), len(report.Overall.Shares), len(report.Groups))

	if report.Empty() {
		return report, &models.EmptyDataError{Source: ds.Source, Skipped: overall.Skipped}
	}
	return report, nil
}

// Reporter runs the whole pipeline: load, count, convert, render.
// Each Run is independent; nothing is kept between calls.
type Reporter struct {
	service *ReportService
	logger  *utils.Logger
}

func NewReporter(logger *utils.Logger) *Reporter {
	return &Reporter{service: NewReportService(logger), logger: logger}
}

// Run loads the source, builds the report and hands it to every sink in order.
// An empty dataset is logged and still rendered (as an empty report).
func (r *Reporter) Run(source storage.RecordSource, groupBy string, sinks ...Sink) (*models.FrequencyReport, error) {
	ds, err := source.Records()
	if err != nil {
		return nil, err
	}

	report, err := r.service.Generate(ds, groupBy)
	var empty *models.EmptyDataError
	switch {
	case errors.As(err, &empty):
		r.logger.Warn("[report] %v", empty)
	case err != nil:
		return nil, err
	}

	for _, sink := range sinks {
		if err := sink.Render(report); err != nil {
			return report, fmt.Errorf("render: %w", err)
		}
	}
	return report, nil
}
