package report

import (
	"fmt"
	"strings"
	"time"

	"ga4insight/internal/api"
)

// NoData is shown in place of an empty breakdown
const NoData = "データなし"

// Dashboard is everything produced by one generation run
type Dashboard struct {
	SiteName   string `json:"site_name"`
	PropertyID string `json:"property_id"`
	Goal       string `json:"goal,omitempty"`

	CurrentWindow  DateWindow `json:"current_window"`
	PreviousWindow DateWindow `json:"previous_window"`

	Current     KPIVector    `json:"current"`
	Previous    KPIVector    `json:"previous"`
	Deltas      KPIVector    `json:"deltas"`
	Comparisons []Comparison `json:"comparisons"`

	Channels Breakdown `json:"channels"`
	Pages    Breakdown `json:"pages"`
	Ages     Breakdown `json:"ages"`
	Devices  Breakdown `json:"devices"`

	Summary   string `json:"summary"`
	Narrative string `json:"narrative,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Input carries the raw reports for Aggregate
type Input struct {
	SiteName       string
	PropertyID     string
	CurrentWindow  DateWindow
	PreviousWindow DateWindow

	KPI     *api.RunReportResponse
	Details *api.RunReportResponse
	Pages   *api.RunReportResponse

	GeneratedAt time.Time
}

// Aggregate parses the three reports into a Dashboard. Empty reports give
// zero vectors and empty breakdowns; only malformed values fail.
func Aggregate(in Input) (*Dashboard, error) {
	current, previous, err := ParseKPIResponse(in.KPI)
	if err != nil {
		return nil, fmt.Errorf("kpi: %w", err)
	}

	details, err := ParseDetailRows(in.Details)
	if err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}

	pages, err := ParsePageRows(in.Pages)
	if err != nil {
		return nil, fmt.Errorf("pages: %w", err)
	}

	d := &Dashboard{
		SiteName:       in.SiteName,
		PropertyID:     in.PropertyID,
		CurrentWindow:  in.CurrentWindow,
		PreviousWindow: in.PreviousWindow,
		Current:        current,
		Previous:       previous,
		Deltas:         ComputeDeltas(current, previous),
		Comparisons:    Compare(current, previous),
		Channels:       ChannelBreakdown(details),
		Pages:          PageRanking(pages),
		Ages:           AgeBreakdown(details),
		Devices:        DeviceBreakdown(details),
		GeneratedAt:    in.GeneratedAt,
	}
	d.Summary = BuildSummary(d)

	return d, nil
}

// BuildSummary renders the fixed three-line summary handed to the narrative
func BuildSummary(d *Dashboard) string {
	channels := NoData
	if len(d.Channels) > 0 {
		channels = d.Channels.String()
	}

	pages := NoData
	if len(d.Pages) > 0 {
		pages = strings.Join(d.Pages.Keys(), ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 主要指標: 訪問ユーザー数 %d, 成果数 %d, 平均滞在時間 %s\n",
		int64(d.Current[ActiveUsers]), int64(d.Current[Conversions]), FormatDuration(d.Current[AvgSessionDuration]))
	fmt.Fprintf(&b, "# 流入経路 TOP5: %s\n", channels)
	fmt.Fprintf(&b, "# 人気ページ TOP5: %s\n", pages)
	return b.String()
}
