// Package results exports a generated dashboard to files.
package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ga4insight/internal/report"
)

// Export writes the dashboard in the requested format and returns the path
// written to
func Export(d *report.Dashboard, opts ExportOptions) (string, error) {
	if d == nil {
		return "", fmt.Errorf("no dashboard to export")
	}
	if opts.Format == "" {
		opts.Format = FormatJSON
	}

	path := opts.OutputPath
	if path == "" {
		path = DefaultFileName(d, opts.Format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if opts.Format == FormatXLSX {
		if err := exportXLSX(d, opts, path); err != nil {
			return "", err
		}
		return path, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s file: %w", opts.Format, err)
	}
	defer file.Close()

	if err := Write(file, d, opts); err != nil {
		return "", err
	}
	return path, nil
}

// Write streams the text formats (json, csv, tsv) to w
func Write(w io.Writer, d *report.Dashboard, opts ExportOptions) error {
	switch opts.Format {
	case FormatJSON, "":
		return writeJSON(w, d, opts.Prettify)
	case FormatCSV:
		return writeDelimited(w, Records(d, opts.SignedDurationDelta), ',')
	case FormatTSV:
		return writeDelimited(w, Records(d, opts.SignedDurationDelta), '\t')
	default:
		return fmt.Errorf("format %q cannot be streamed", opts.Format)
	}
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// DefaultFileName builds dashboard_<site>_<end date>.<ext>
func DefaultFileName(d *report.Dashboard, format ExportFormat) string {
	site := strings.Trim(unsafeName.ReplaceAllString(d.SiteName, "_"), "_")
	if site == "" {
		site = d.PropertyID
	}
	return fmt.Sprintf("dashboard_%s_%s.%s", site, d.CurrentWindow.EndDate(), format)
}

// Records flattens the dashboard into section/key/value facts
func Records(d *report.Dashboard, signedDuration bool) []Record {
	records := []Record{
		{Section: SectionMeta, Key: "site_name", Value: d.SiteName},
		{Section: SectionMeta, Key: "property_id", Value: d.PropertyID},
		{Section: SectionMeta, Key: "current_window", Value: d.CurrentWindow.String()},
		{Section: SectionMeta, Key: "previous_window", Value: d.PreviousWindow.String()},
	}
	if d.Goal != "" {
		records = append(records, Record{Section: SectionMeta, Key: "goal", Value: d.Goal})
	}
	if !d.GeneratedAt.IsZero() {
		records = append(records, Record{Section: SectionMeta, Key: "generated_at", Value: d.GeneratedAt.Format(time.RFC3339)})
	}

	for i, label := range report.KPILabels {
		r := Record{
			Section:  SectionKPI,
			Key:      label,
			Value:    count(d.Current[i]),
			Previous: count(d.Previous[i]),
			Change:   signedCount(d.Deltas[i]),
		}
		if i == report.AvgSessionDuration {
			r.Value = report.FormatDuration(d.Current[i])
			r.Previous = report.FormatDuration(d.Previous[i])
			r.Change = report.DurationDelta(d.Deltas[i], signedDuration)
		}
		records = append(records, r)
	}

	for _, s := range breakdowns(d) {
		for _, e := range s.entries {
			records = append(records, Record{Section: s.section, Key: e.Key, Value: count(e.Value)})
		}
	}

	if d.Narrative != "" {
		records = append(records, Record{Section: SectionNarrative, Key: "text", Value: d.Narrative})
	}
	return records
}

type section struct {
	section string
	sheet   string
	header  string
	entries report.Breakdown
}

func breakdowns(d *report.Dashboard) []section {
	return []section{
		{SectionChannels, "Channels", "channel", d.Channels},
		{SectionPages, "Pages", "page_title", d.Pages},
		{SectionAges, "Ages", "age_bracket", d.Ages},
		{SectionDevices, "Devices", "device_category", d.Devices},
	}
}

func count(v float64) string { return fmt.Sprintf("%.0f", v) }

func signedCount(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.0f", v)
	}
	return count(v)
}

func writeJSON(w io.Writer, d *report.Dashboard, prettify bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if prettify {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeDelimited(w io.Writer, records []Record, comma rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = comma

	if err := writer.Write(recordHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(r.row()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportXLSX(d *report.Dashboard, opts ExportOptions, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	var overview [][]interface{}
	for _, r := range Records(d, opts.SignedDurationDelta) {
		if r.Section == SectionMeta {
			overview = append(overview, []interface{}{r.Key, r.Value})
		}
	}
	if err := f.SetSheetName("Sheet1", "Overview"); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheet(f, "Overview", []string{"key", "value"}, overview, headerStyle); err != nil {
		return err
	}

	var kpi [][]interface{}
	for i, label := range report.KPILabels {
		if i == report.AvgSessionDuration {
			kpi = append(kpi, []interface{}{
				label,
				report.FormatDuration(d.Current[i]),
				report.FormatDuration(d.Previous[i]),
				report.DurationDelta(d.Deltas[i], opts.SignedDurationDelta),
			})
			continue
		}
		kpi = append(kpi, []interface{}{label, d.Current[i], d.Previous[i], d.Deltas[i]})
	}
	if err := addSheet(f, "KPI", []string{"metric", "current", "previous", "change"}, kpi, headerStyle); err != nil {
		return err
	}

	for _, s := range breakdowns(d) {
		rows := make([][]interface{}, 0, len(s.entries))
		for _, e := range s.entries {
			rows = append(rows, []interface{}{e.Key, e.Value})
		}
		if len(rows) == 0 {
			rows = append(rows, []interface{}{report.NoData})
		}
		if err := addSheet(f, s.sheet, []string{s.header, "value"}, rows, headerStyle); err != nil {
			return err
		}
	}

	if d.Narrative != "" {
		if err := addSheet(f, "Narrative", []string{"text"}, [][]interface{}{{d.Narrative}}, headerStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, name string, header []string, rows [][]interface{}, style int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return writeSheet(f, name, header, rows, style)
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]interface{}, style int) error {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", lastCol, 24)
}
