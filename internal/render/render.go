// Package render prints a generated dashboard to the terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"ga4insight/internal/report"
)

const DefaultBarWidth = 30

// Options for Dashboard
type Options struct {
	SignedDurationDelta bool
	BarWidth            int
}

// Card is one KPI tile
type Card struct {
	Label string
	Value string
	Delta string
}

// Cards builds the four KPI tiles in display order
func Cards(d *report.Dashboard, signedDuration bool) []Card {
	count := func(i int) Card {
		return Card{
			Label: report.KPILabels[i],
			Value: humanize.Comma(int64(d.Current[i])),
			Delta: signedCount(int64(d.Current[i]) - int64(d.Previous[i])),
		}
	}

	return []Card{
		count(report.ActiveUsers),
		count(report.Sessions),
		{
			Label: report.KPILabels[report.AvgSessionDuration],
			Value: report.FormatDuration(d.Current[report.AvgSessionDuration]),
			Delta: report.DurationDelta(d.Deltas[report.AvgSessionDuration], signedDuration),
		},
		count(report.Conversions),
	}
}

func signedCount(n int64) string {
	if n > 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}

// Dashboard writes the whole report
func Dashboard(w io.Writer, d *report.Dashboard, opts Options) {
	if opts.BarWidth <= 0 {
		opts.BarWidth = DefaultBarWidth
	}

	fmt.Fprintf(w, "📊 %s (property %s)\n", d.SiteName, d.PropertyID)
	fmt.Fprintf(w, "   期間: %s  前期間: %s\n", d.CurrentWindow, d.PreviousWindow)
	if d.Goal != "" {
		fmt.Fprintf(w, "   目標: %s\n", d.Goal)
	}

	fmt.Fprintln(w, "\n1. サイトの健康状態")
	KPICards(w, Cards(d, opts.SignedDurationDelta))

	fmt.Fprintln(w, "\n2. 顧客インサイト")
	BarChart(w, "流入経路 TOP5", d.Channels, opts.BarWidth)
	BarChart(w, "人気ページ TOP5", d.Pages, opts.BarWidth)
	BarChart(w, "年齢層", d.Ages, opts.BarWidth)
	BarChart(w, "デバイス", d.Devices, opts.BarWidth)

	if d.Narrative != "" {
		fmt.Fprintln(w, "\n3. AIによる分析と提案")
		Narrative(w, d.Narrative)
	}
}

// KPICards writes one line per card
func KPICards(w io.Writer, cards []Card) {
	labelWidth, valueWidth := 0, 0
	for _, c := range cards {
		labelWidth = max(labelWidth, runewidth.StringWidth(c.Label))
		valueWidth = max(valueWidth, runewidth.StringWidth(c.Value))
	}

	for _, c := range cards {
		fmt.Fprintf(w, "   %s  %s  (%s)\n",
			runewidth.FillRight(c.Label, labelWidth),
			runewidth.FillLeft(c.Value, valueWidth),
			c.Delta)
	}
}

// BarChart draws a horizontal bar per entry, or データなし when empty
func BarChart(w io.Writer, title string, b report.Breakdown, width int) {
	fmt.Fprintf(w, "\n   %s\n", title)
	if len(b) == 0 {
		fmt.Fprintf(w, "     %s\n", report.NoData)
		return
	}

	keyWidth := 0
	for _, e := range b {
		keyWidth = max(keyWidth, runewidth.StringWidth(e.Key))
	}
	keyWidth = min(keyWidth, 40)

	peak := b.Max()
	for _, e := range b {
		fmt.Fprintf(w, "     %s %s %s\n",
			padOrTruncate(e.Key, keyWidth),
			bar(e.Value, peak, width),
			humanize.Comma(int64(e.Value)))
	}
}

func bar(value, peak float64, width int) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / peak * float64(width)))
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// Narrative writes the markdown recommendation as received
func Narrative(w io.Writer, text string) {
	fmt.Fprintln(w, strings.TrimRight(text, "\n"))
}
