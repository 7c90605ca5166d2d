package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"animalitos-stats/models"
)

// Count tallies records per animal. Records without an animal are not
// counted; they are reported in Skipped.
func Count(records []models.Record) models.FrequencyTable {
	t := models.FrequencyTable{Counts: make(map[string]int)}
	for _, r := range records {
		if r.Animal == "" {
			t.Skipped++
			continue
		}
		t.Counts[r.Animal]++
	}
	return t
}

// ToPercentages converts counts to shares of the total, in percent.
// A table with no counts yields an empty result.
func ToPercentages(t models.FrequencyTable) models.ProbabilityTable {
	total := t.Total()
	p := make(models.ProbabilityTable, len(t.Counts))
	if total == 0 {
		return p
	}
	for category, n := range t.Counts {
		p[category] = 100 * float64(n) / float64(total)
	}
	return p
}

// Partition splits records by the value of field, keeping file order inside
// each partition. Records with a null key are left out and counted in missing.
func Partition(records []models.Record, field string) (parts map[string][]models.Record, missing int) {
	parts = make(map[string][]models.Record)
	for _, r := range records {
		key := strings.TrimSpace(r.Value(field))
		if models.IsNull(key) {
			missing++
			continue
		}
		parts[key] = append(parts[key], r)
	}
	return parts, missing
}

// GroupByKey computes an independent frequency table per value of field.
// Only keys that occur are present.
func GroupByKey(records []models.Record, field string) (map[string]models.FrequencyTable, int) {
	parts, missing := Partition(records, field)
	tables := make(map[string]models.FrequencyTable, len(parts))
	for key, part := range parts {
		tables[key] = Count(part)
	}
	return tables, missing
}

// Breakdown orders a table for display: count descending, then category ascending.
func Breakdown(t models.FrequencyTable) models.Breakdown {
	pct := ToPercentages(t)
	b := models.Breakdown{
		Total:  t.Total(),
		Shares: make([]models.CategoryShare, 0, len(t.Counts)),
	}
	for category, n := range t.Counts {
		b.Shares = append(b.Shares, models.CategoryShare{
			Category: category,
			Count:    n,
			Percent:  pct[category],
		})
	}
	sort.Slice(b.Shares, func(i, j int) bool {
		if b.Shares[i].Count != b.Shares[j].Count {
			return b.Shares[i].Count > b.Shares[j].Count
		}
		return b.Shares[i].Category < b.Shares[j].Category
	})
	return b
}

// SortKeys orders group keys naturally: integers numerically, clock times by
// time of day, everything else lexically. Integers sort before clock times,
// which sort before plain strings.
func SortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})
}

var clockLayouts = []string{"15:04", "3:04 PM", "03:04 PM", "3:04PM", "03:04PM", "3 PM", "3PM"}

type keyRank struct {
	class int
	num   int
	text  string
}

func rankKey(k string) keyRank {
	if n, err := strconv.Atoi(k); err == nil {
		return keyRank{class: 0, num: n, text: k}
	}
	upper := strings.ToUpper(strings.ReplaceAll(k, ".", ""))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return keyRank{class: 1, num: t.Hour()*60 + t.Minute(), text: k}
		}
	}
	return keyRank{class: 2, text: k}
}

func keyLess(a, b string) bool {
	ra, rb := rankKey(a), rankKey(b)
	if ra.class != rb.class {
		return ra.class < rb.class
	}
	if ra.num != rb.num {
		return ra.num < rb.num
	}
	return ra.text < rb.text
}
