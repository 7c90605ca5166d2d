package models

// FrequencyTable maps a category to its occurrence count.
// Skipped counts the records whose category was null and were left out.
type FrequencyTable struct {
	Counts  map[string]int
	Skipped int
}

// Total returns the number of counted records.
func (t FrequencyTable) Total() int {
	n := 0
	for _, c := range t.Counts {
		n += c
	}
	return n
}

// ProbabilityTable maps a category to its share of the total, in percent.
type ProbabilityTable map[string]float64

// CategoryShare is one line of a report.
type CategoryShare struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// Breakdown is a frequency table in report order: count descending, category ascending.
type Breakdown struct {
	Total  int             `json:"total"`
	Shares []CategoryShare `json:"shares"`
}

// GroupBreakdown is the breakdown of a single partition of a grouped report.
type GroupBreakdown struct {
	Key string `json:"key"`
	Breakdown
}

// FrequencyReport holds the computed frequencies over a dataset.
// Overall is always filled; Groups only when GroupBy is set.
type FrequencyReport struct {
	Source     string           `json:"source"`
	GroupBy    string           `json:"group_by,omitempty"`
	Records    int              `json:"records"`
	Skipped    int              `json:"skipped"`
	MissingKey int              `json:"missing_key,omitempty"`
	BadDates   int              `json:"bad_dates,omitempty"`
	Overall    Breakdown        `json:"overall"`
	Groups     []GroupBreakdown `json:"groups,omitempty"`
}

// Empty reports whether no record was counted.
func (r *FrequencyReport) Empty() bool {
	return r.Overall.Total == 0
}

// Grouped reports whether the report is partitioned by a secondary key.
func (r *FrequencyReport) Grouped() bool {
	return r.GroupBy != ""
}
