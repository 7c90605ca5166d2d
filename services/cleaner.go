package services

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"animalitos-stats/models"
	"animalitos-stats/utils"
)

var (
	// numberPrefixRegexp captures a leading draw number such as "12 " or "00-".
	numberPrefixRegexp = regexp.MustCompile(`^(0|00|[1-9]\d?)\s*[-.]?\s+`)
	// hourRegexp captures clock labels like "8:00 AM", "08:00am" or "20:00".
	hourRegexp = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([ap])\.?\s*m?\.?$`)
)

// Cleaner transforms RawDraws into clean, validated Draws.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean drops undrawn slots and duplicates and returns draws sorted by date, then hour.
func (c *Cleaner) Clean(raw []*models.RawDraw, runID string) []*models.Draw {
	seen := make(map[string]struct{})
	result := make([]*models.Draw, 0, len(raw))

	for _, r := range raw {
		animal := normaliseAnimal(r.Animal)
		if animal == "" {
			c.logger.Debug("[cleaner] Dropping empty slot %s %s", r.Date, r.Hour)
			continue
		}

		hour := normaliseHour(r.Hour)
		if hour == "" {
			c.logger.Warn("[cleaner] Dropping draw with no hour on %s: %s", r.Date, animal)
			continue
		}

		date, err := models.ParseDate(r.Date)
		if err != nil {
			c.logger.Warn("[cleaner] Dropping draw with bad date %q: %v", r.Date, err)
			continue
		}

		slot := date.Format(models.DateLayout) + "|" + hour
		if _, dup := seen[slot]; dup {
			c.logger.Debug("[cleaner] Duplicate slot skipped: %s", slot)
			continue
		}
		seen[slot] = struct{}{}

		result = append(result, &models.Draw{
			RunID:     runID,
			Animal:    animal,
			Hour:      hour,
			Date:      date,
			CreatedAt: time.Now(),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return keyLess(result[i].Hour, result[j].Hour)
	})

	c.logger.Info("[cleaner] Cleaned %d → %d draws (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// normaliseAnimal collapses whitespace, strips a leading draw number and maps
// the "-" placeholder of an undrawn slot to the empty string.
func normaliseAnimal(s string) string {
	s = normaliseText(s)
	if s == "-" || models.IsNull(s) {
		return ""
	}
	s = numberPrefixRegexp.ReplaceAllString(s, "")
	return strings.Trim(s, " -")
}

// normaliseHour rewrites 12-hour clock labels as "hh:mm AM" so the same slot
// is spelled one way across pages.
func normaliseHour(s string) string {
	s = normaliseText(s)
	m := hourRegexp.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	h := m[1]
	if len(h) == 1 {
		h = "0" + h
	}
	return h + ":" + m[2] + " " + strings.ToUpper(m[3]) + "M"
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
