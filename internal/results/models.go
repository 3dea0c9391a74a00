package results

import "strings"

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatTSV  ExportFormat = "tsv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseFormat accepts a format name in any case
func ParseFormat(s string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatTSV, FormatXLSX:
		return f, true
	}
	return "", false
}

// ExportOptions represents options for dashboard export
type ExportOptions struct {
	Format              ExportFormat `json:"format"`
	OutputPath          string       `json:"output_path"`        // empty = DefaultFileName in the working directory
	Prettify            bool         `json:"prettify,omitempty"` // JSON only
	SignedDurationDelta bool         `json:"signed_duration_delta,omitempty"`
}

// Sections of a flattened dashboard
const (
	SectionMeta      = "meta"
	SectionKPI       = "kpi"
	SectionChannels  = "channels"
	SectionPages     = "pages"
	SectionAges      = "ages"
	SectionDevices   = "devices"
	SectionNarrative = "narrative"
)

// Record is one flattened dashboard fact. Previous and Change are only set
// for KPI records.
type Record struct {
	Section  string `json:"section"`
	Key      string `json:"key"`
	Value    string `json:"value"`
	Previous string `json:"previous,omitempty"`
	Change   string `json:"change,omitempty"`
}

var recordHeader = []string{"section", "key", "value", "previous", "change"}

func (r Record) row() []string {
	return []string{r.Section, r.Key, r.Value, r.Previous, r.Change}
}
