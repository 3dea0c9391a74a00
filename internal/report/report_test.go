package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ga4insight/internal/api"
)

func TestComputeDeltas(t *testing.T) {
	tests := []struct {
		name     string
		current  KPIVector
		previous KPIVector
		want     KPIVector
	}{
		{"growth", KPIVector{100, 150, 10, 125}, KPIVector{80, 140, 8, 95}, KPIVector{20, 10, 2, 30}},
		{"decline", KPIVector{5, 5, 0, 30}, KPIVector{10, 8, 3, 60}, KPIVector{-5, -3, -3, -30}},
		{"zero previous", KPIVector{1, 2, 3, 4.5}, KPIVector{}, KPIVector{1, 2, 3, 4.5}},
		{"zero current", KPIVector{}, KPIVector{7, 8, 9, 10}, KPIVector{-7, -8, -9, -10}},
		{"both zero", KPIVector{}, KPIVector{}, KPIVector{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDeltas(tt.current, tt.previous)
			assert.Equal(t, tt.want, got)
			for i := range got {
				assert.Equal(t, tt.current[i]-tt.previous[i], got[i])
			}
		})
	}
}

func TestCompare(t *testing.T) {
	cmp := Compare(KPIVector{100, 150, 10, 95}, KPIVector{80, 150, 0, 125})
	require.Len(t, cmp, 4)

	assert.Equal(t, "activeUsers", cmp[ActiveUsers].Metric)
	assert.Equal(t, DirectionUp, cmp[ActiveUsers].Direction)
	assert.InDelta(t, 25.0, cmp[ActiveUsers].PercentageChange, 0.0001)

	assert.Equal(t, DirectionStable, cmp[Sessions].Direction)
	assert.Zero(t, cmp[Sessions].PercentageChange)

	// previous of zero has no meaningful percentage
	assert.Equal(t, DirectionUp, cmp[Conversions].Direction)
	assert.Zero(t, cmp[Conversions].PercentageChange)

	assert.Equal(t, DirectionDown, cmp[AvgSessionDuration].Direction)
	assert.Equal(t, -30.0, cmp[AvgSessionDuration].AbsoluteChange)
	assert.InDelta(t, -24.0, cmp[AvgSessionDuration].PercentageChange, 0.0001)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0秒"},
		{125, "2分5秒"},
		{59, "0分59秒"},
		{30, "0分30秒"},
		{60, "1分0秒"},
		{3600, "60分0秒"},
		{125.4, "2分5秒"},
		{62.5, "1分2秒"}, // half rounds to even
		{63.5, "1分4秒"},
		{-30, "-1分30秒"},
		{-60, "-1分0秒"},
		{-125, "-3分55秒"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.seconds), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestFormatSignedDuration(t *testing.T) {
	assert.Equal(t, "0秒", FormatSignedDuration(0))
	assert.Equal(t, "+0分30秒", FormatSignedDuration(30))
	assert.Equal(t, "-0分30秒", FormatSignedDuration(-30))
	assert.Equal(t, "-2分5秒", FormatSignedDuration(-125))

	assert.Equal(t, "-1分30秒", DurationDelta(-30, false))
	assert.Equal(t, "-0分30秒", DurationDelta(-30, true))
}

type channelRow struct {
	channel string
	users   float64
}

func channelKey(r channelRow) string    { return r.channel }
func channelValue(r channelRow) float64 { return r.users }

func TestGroupAndRank_TopNByValue(t *testing.T) {
	rows := []channelRow{
		{"Direct", 50}, {"Organic", 30}, {"Referral", 30}, {"Email", 5},
		{"Social", 40}, {"Paid", 30}, {"Display", 1}, {"Direct", 10},
	}

	got := GroupAndRank(rows, channelKey, channelValue, RankOptions{Order: ByValueDesc, TopN: 5})
	require.Len(t, got, 5)
	assert.Equal(t, []string{"Direct", "Social", "Organic", "Referral", "Paid"}, got.Keys())
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Value, got[i].Value)
	}
	v, ok := got.Get("Direct")
	require.True(t, ok)
	assert.Equal(t, 60.0, v)
}

func TestGroupAndRank_ByKeyNoTruncation(t *testing.T) {
	rows := []channelRow{
		{"65+", 1}, {"18-24", 4}, {"45-54", 2}, {"unknown", 9},
		{"25-34", 8}, {"35-44", 6}, {"55-64", 3}, {"18-24", 1},
	}

	got := GroupAndRank(rows, channelKey, channelValue, RankOptions{Order: ByKeyAsc, TopN: 5})
	assert.Equal(t, []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+", "unknown"}, got.Keys())
	v, _ := got.Get("18-24")
	assert.Equal(t, 5.0, v)
}

func TestGroupAndRank_EmptyInput(t *testing.T) {
	got := GroupAndRank(nil, channelKey, channelValue, RankOptions{TopN: 5})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChannelBreakdown_Scenario(t *testing.T) {
	rows := []DetailRow{
		{Channel: "Direct", ActiveUsers: 50},
		{Channel: "Organic", ActiveUsers: 30},
		{Channel: "Direct", ActiveUsers: 10},
	}

	got := ChannelBreakdown(rows)
	assert.Equal(t, Breakdown{{Key: "Direct", Value: 60}, {Key: "Organic", Value: 30}}, got)
	assert.Equal(t, "Direct 60, Organic 30", got.String())
}

func TestDeviceBreakdown_Untruncated(t *testing.T) {
	var rows []DetailRow
	for i, d := range []string{"desktop", "mobile", "tablet", "smart tv", "console", "car", "watch"} {
		rows = append(rows, DetailRow{DeviceCategory: d, ActiveUsers: int64(i + 1)})
	}

	got := DeviceBreakdown(rows)
	assert.Len(t, got, 7)
	assert.Equal(t, "watch", got[0].Key)
	assert.Equal(t, 7.0, got.Max())
}

func TestNewWindows(t *testing.T) {
	today := time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("JST", 9*3600))
	current, previous := NewWindows(today)

	assert.Equal(t, "2026-09-20", current.StartDate())
	assert.Equal(t, "2026-10-19", current.EndDate())
	assert.Equal(t, "2026-08-21", previous.StartDate())
	assert.Equal(t, "2026-09-19", previous.EndDate())

	assert.Equal(t, WindowDays, current.Days())
	assert.Equal(t, WindowDays, previous.Days())
	assert.Equal(t, current.Start, previous.End.AddDate(0, 0, 1))
}

func TestNewWindows_AcrossYearBoundary(t *testing.T) {
	current, previous := NewWindows(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-12-17", current.StartDate())
	assert.Equal(t, "2025-11-17", previous.StartDate())
	assert.Equal(t, "2025-12-16", previous.EndDate())
	assert.Equal(t, WindowDays, previous.Days())
}

func metricValues(values ...string) []api.MetricValue {
	out := make([]api.MetricValue, len(values))
	for i, v := range values {
		out[i] = api.MetricValue{Value: v}
	}
	return out
}

func kpiHeaders() []api.MetricHeader {
	return []api.MetricHeader{
		{Name: "activeUsers"}, {Name: "sessions"}, {Name: "conversions"}, {Name: "averageSessionDuration"},
	}
}

func TestParseKPIResponse_ByDateRangeName(t *testing.T) {
	resp := &api.RunReportResponse{
		DimensionHeaders: []api.DimensionHeader{{Name: "dateRange"}},
		MetricHeaders:    kpiHeaders(),
		Rows: []api.Row{
			{DimensionValues: []api.DimensionValue{{Value: "previous"}}, MetricValues: metricValues("80", "140", "8", "95")},
			{DimensionValues: []api.DimensionValue{{Value: "current"}}, MetricValues: metricValues("100", "150", "10", "125.0")},
		},
	}

	current, previous, err := ParseKPIResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, KPIVector{100, 150, 10, 125}, current)
	assert.Equal(t, KPIVector{80, 140, 8, 95}, previous)
}

func TestParseKPIResponse_PositionalFallback(t *testing.T) {
	resp := &api.RunReportResponse{
		Rows: []api.Row{{MetricValues: metricValues("3", "4", "1", "61.5")}},
	}

	current, previous, err := ParseKPIResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, KPIVector{3, 4, 1, 61.5}, current)
	assert.Equal(t, KPIVector{}, previous)
}

func TestParseKPIResponse_NoRows(t *testing.T) {
	for _, resp := range []*api.RunReportResponse{nil, {}} {
		current, previous, err := ParseKPIResponse(resp)
		require.NoError(t, err)
		assert.Equal(t, KPIVector{0, 0, 0, 0}, current)
		assert.Equal(t, KPIVector{0, 0, 0, 0}, previous)
	}
}

func TestParseKPIResponse_Malformed(t *testing.T) {
	resp := &api.RunReportResponse{Rows: []api.Row{{MetricValues: metricValues("n/a", "1", "1", "1")}}}
	_, _, err := ParseKPIResponse(resp)
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestParseDetailRows(t *testing.T) {
	resp := &api.RunReportResponse{
		DimensionHeaders: []api.DimensionHeader{
			{Name: "sessionDefaultChannelGroup"}, {Name: "deviceCategory"}, {Name: "userAgeBracket"},
		},
		Rows: []api.Row{
			{
				DimensionValues: []api.DimensionValue{{Value: "Direct"}, {Value: "mobile"}, {Value: "25-34"}},
				MetricValues:    metricValues("50"),
			},
		},
	}

	rows, err := ParseDetailRows(resp)
	require.NoError(t, err)
	assert.Equal(t, []DetailRow{{Channel: "Direct", DeviceCategory: "mobile", AgeBracket: "25-34", ActiveUsers: 50}}, rows)

	resp.Rows[0].DimensionValues = resp.Rows[0].DimensionValues[:1]
	_, err = ParseDetailRows(resp)
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestParsePageRows(t *testing.T) {
	resp := &api.RunReportResponse{
		Rows: []api.Row{
			{DimensionValues: []api.DimensionValue{{Value: "Home"}}, MetricValues: metricValues("900")},
			{DimensionValues: []api.DimensionValue{{Value: "Pricing"}}, MetricValues: metricValues("300")},
		},
	}

	rows, err := ParsePageRows(resp)
	require.NoError(t, err)
	assert.Equal(t, []PageRow{{"Home", 900}, {"Pricing", 300}}, rows)
}

func TestAggregate_Scenario(t *testing.T) {
	current, previous := NewWindows(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	in := Input{
		SiteName:       "Acme",
		PropertyID:     "123456789",
		CurrentWindow:  current,
		PreviousWindow: previous,
		KPI: &api.RunReportResponse{
			MetricHeaders: kpiHeaders(),
			Rows: []api.Row{
				{MetricValues: metricValues("100", "150", "10", "125")},
				{MetricValues: metricValues("80", "140", "8", "95")},
			},
		},
		Details: &api.RunReportResponse{
			Rows: []api.Row{
				{DimensionValues: []api.DimensionValue{{Value: "Direct"}, {Value: "desktop"}, {Value: "25-34"}}, MetricValues: metricValues("50")},
				{DimensionValues: []api.DimensionValue{{Value: "Organic"}, {Value: "mobile"}, {Value: "18-24"}}, MetricValues: metricValues("30")},
				{DimensionValues: []api.DimensionValue{{Value: "Direct"}, {Value: "mobile"}, {Value: "25-34"}}, MetricValues: metricValues("10")},
			},
		},
		Pages: &api.RunReportResponse{
			Rows: []api.Row{
				{DimensionValues: []api.DimensionValue{{Value: "Home"}}, MetricValues: metricValues("900")},
			},
		},
	}

	d, err := Aggregate(in)
	require.NoError(t, err)

	assert.Equal(t, KPIVector{20, 10, 2, 30}, d.Deltas)
	assert.Equal(t, "2分5秒", FormatDuration(d.Current[AvgSessionDuration]))
	assert.Equal(t, "0分30秒", FormatDuration(d.Deltas[AvgSessionDuration]))

	assert.Equal(t, Breakdown{{Key: "Direct", Value: 60}, {Key: "Organic", Value: 30}}, d.Channels)
	assert.Equal(t, []string{"18-24", "25-34"}, d.Ages.Keys())
	assert.Equal(t, []string{"desktop", "mobile"}, d.Devices.Keys())
	assert.Equal(t, []string{"Home"}, d.Pages.Keys())

	assert.Equal(t,
		"# 主要指標: 訪問ユーザー数 100, 成果数 10, 平均滞在時間 2分5秒\n"+
			"# 流入経路 TOP5: Direct 60, Organic 30\n"+
			"# 人気ページ TOP5: Home\n",
		d.Summary)
}

func TestAggregate_EmptyReports(t *testing.T) {
	d, err := Aggregate(Input{SiteName: "Acme", KPI: &api.RunReportResponse{}})
	require.NoError(t, err)

	assert.Equal(t, KPIVector{}, d.Current)
	assert.Equal(t, KPIVector{}, d.Deltas)
	assert.Empty(t, d.Channels)
	assert.Empty(t, d.Pages)
	assert.Contains(t, d.Summary, "平均滞在時間 0秒")
	assert.Contains(t, d.Summary, "流入経路 TOP5: データなし")
	assert.Contains(t, d.Summary, "人気ページ TOP5: データなし")
}
