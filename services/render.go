package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"animalitos-stats/models"
)

// FormatPercent renders a percentage with two decimals, rounding half away from zero.
// Exact ties therefore differ from fmt's %.2f, which rounds them to even:
// 0.125 prints as 0.13 here and as 0.12 with Sprintf.
func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

// FormatText renders the report as plain text, one "<category>: <NN.NN>%" line
// per category. Grouped reports get a "<field>=<key> (n=<total>)" header per
// group with the category lines indented below it. An empty report renders
// as the empty string.
func FormatText(r *models.FrequencyReport) string {
	var b strings.Builder

	if !r.Grouped() {
		writeShares(&b, r.Overall.Shares, "")
		return b.String()
	}

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "%s=%s (n=%d)\n", r.GroupBy, g.Key, g.Total)
		writeShares(&b, g.Shares, "  ")
	}
	return b.String()
}

func writeShares(b *strings.Builder, shares []models.CategoryShare, indent string) {
	for _, s := range shares {
		fmt.Fprintf(b, "%s%s: %s%%\n", indent, s.Category, FormatPercent(s.Percent))
	}
}

// TextSink writes FormatText output to w.
type TextSink struct {
	w io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (t *TextSink) Render(r *models.FrequencyReport) error {
	_, err := io.WriteString(t.w, FormatText(r))
	return err
}
