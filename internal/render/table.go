package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TableOptions controls console tables
type TableOptions struct {
	MaxRows     int // 0 = all
	MaxColWidth int // display cells, 0 = unlimited
}

// DefaultTableOptions returns sensible defaults for table display
func DefaultTableOptions() TableOptions {
	return TableOptions{MaxRows: 50, MaxColWidth: 40}
}

// Table formats rows as a markdown-style table measured in display cells,
// so full-width characters line up
func Table(headers []string, rows [][]string, opts TableOptions) []string {
	if len(rows) == 0 {
		return []string{"No data"}
	}

	displayRows := rows
	if opts.MaxRows > 0 && len(displayRows) > opts.MaxRows {
		displayRows = displayRows[:opts.MaxRows]
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = runewidth.StringWidth(header)
	}
	for _, row := range displayRows {
		for i, cell := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
			}
		}
	}
	if opts.MaxColWidth > 0 {
		for i := range colWidths {
			colWidths[i] = min(colWidths[i], opts.MaxColWidth)
		}
	}

	var lines []string

	headerParts := make([]string, len(headers))
	for i, header := range headers {
		headerParts[i] = padOrTruncate(header, colWidths[i])
	}
	lines = append(lines, "| "+strings.Join(headerParts, " | ")+" |")

	separatorParts := make([]string, len(headers))
	for i, width := range colWidths {
		separatorParts[i] = strings.Repeat("-", width+2)
	}
	lines = append(lines, "|"+strings.Join(separatorParts, "|")+"|")

	for _, row := range displayRows {
		rowParts := make([]string, len(headers))
		for i := range headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			rowParts[i] = padOrTruncate(cell, colWidths[i])
		}
		lines = append(lines, "| "+strings.Join(rowParts, " | ")+" |")
	}

	if len(displayRows) < len(rows) {
		lines = append(lines, "", fmt.Sprintf("Showing %d of %d rows", len(displayRows), len(rows)))
	}

	return lines
}

func padOrTruncate(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}
