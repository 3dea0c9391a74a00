package report

import (
	"errors"
	"fmt"
	"strconv"

	"ga4insight/internal/api"
	"ga4insight/internal/query"
)

// ErrMalformedRow is returned when a report row cannot be read
var ErrMalformedRow = errors.New("malformed report row")

// DetailRow is one channel/device/age combination in the current window
type DetailRow struct {
	Channel        string `json:"channel"`
	DeviceCategory string `json:"device_category"`
	AgeBracket     string `json:"age_bracket"`
	ActiveUsers    int64  `json:"active_users"`
}

// PageRow is one page title and its views in the current window
type PageRow struct {
	PageTitle string `json:"page_title"`
	PageViews int64  `json:"page_views"`
}

// ParseKPIResponse reads the current and previous KPI vectors. Rows are
// matched on the dateRange dimension when GA4 returns it, otherwise the
// first row is current and the second previous. A missing row yields the
// zero vector.
func ParseKPIResponse(resp *api.RunReportResponse) (current, previous KPIVector, err error) {
	if resp == nil || len(resp.Rows) == 0 {
		return current, previous, nil
	}

	columns := kpiColumns(resp.MetricHeaders)
	rangeIdx := headerIndex(resp.DimensionHeaders, query.DimensionDateRange)

	var haveCurrent, havePrevious bool
	for i, row := range resp.Rows {
		var name string
		if rangeIdx >= 0 && rangeIdx < len(row.DimensionValues) {
			name = row.DimensionValues[rangeIdx].Value
		}

		// GA4 names unnamed ranges date_range_0, date_range_1
		target := ""
		switch {
		case name == query.RangeCurrent || name == "date_range_0":
			target = query.RangeCurrent
		case name == query.RangePrevious || name == "date_range_1":
			target = query.RangePrevious
		case name == "" && i == 0:
			target = query.RangeCurrent
		case name == "" && i == 1:
			target = query.RangePrevious
		default:
			continue
		}

		vec, err := parseKPIRow(row, columns)
		if err != nil {
			return KPIVector{}, KPIVector{}, fmt.Errorf("%s KPI row: %w", target, err)
		}

		if target == query.RangeCurrent && !haveCurrent {
			current, haveCurrent = vec, true
		} else if target == query.RangePrevious && !havePrevious {
			previous, havePrevious = vec, true
		}
	}

	return current, previous, nil
}

// kpiColumns maps each metric column to its KPIVector position (-1 if unused)
func kpiColumns(headers []api.MetricHeader) []int {
	if len(headers) == 0 {
		cols := make([]int, kpiCount)
		for i := range cols {
			cols[i] = i
		}
		return cols
	}

	cols := make([]int, len(headers))
	for i, h := range headers {
		cols[i] = -1
		for k, name := range query.KPIMetrics {
			if h.Name == name {
				cols[i] = k
				break
			}
		}
	}
	return cols
}

func parseKPIRow(row api.Row, columns []int) (KPIVector, error) {
	var vec KPIVector
	for i, mv := range row.MetricValues {
		if i >= len(columns) || columns[i] < 0 {
			continue
		}
		v, err := parseMetric(mv.Value)
		if err != nil {
			return KPIVector{}, err
		}
		vec[columns[i]] = v
	}
	return vec, nil
}

// ParseDetailRows reads the channel/device/age breakdown report
func ParseDetailRows(resp *api.RunReportResponse) ([]DetailRow, error) {
	if resp == nil {
		return nil, nil
	}

	channelIdx := headerIndexOr(resp.DimensionHeaders, query.DimensionChannelGroup, 0)
	deviceIdx := headerIndexOr(resp.DimensionHeaders, query.DimensionDeviceCategory, 1)
	ageIdx := headerIndexOr(resp.DimensionHeaders, query.DimensionAgeBracket, 2)

	rows := make([]DetailRow, 0, len(resp.Rows))
	for i, row := range resp.Rows {
		if len(row.MetricValues) == 0 {
			return nil, fmt.Errorf("%w: detail row %d has no metric", ErrMalformedRow, i)
		}
		dims, err := dimensionValues(row, channelIdx, deviceIdx, ageIdx)
		if err != nil {
			return nil, fmt.Errorf("detail row %d: %w", i, err)
		}
		users, err := parseCount(row.MetricValues[0].Value)
		if err != nil {
			return nil, fmt.Errorf("detail row %d: %w", i, err)
		}
		rows = append(rows, DetailRow{
			Channel:        dims[0],
			DeviceCategory: dims[1],
			AgeBracket:     dims[2],
			ActiveUsers:    users,
		})
	}
	return rows, nil
}

// ParsePageRows reads the page title report
func ParsePageRows(resp *api.RunReportResponse) ([]PageRow, error) {
	if resp == nil {
		return nil, nil
	}

	titleIdx := headerIndexOr(resp.DimensionHeaders, query.DimensionPageTitle, 0)

	rows := make([]PageRow, 0, len(resp.Rows))
	for i, row := range resp.Rows {
		if len(row.MetricValues) == 0 {
			return nil, fmt.Errorf("%w: page row %d has no metric", ErrMalformedRow, i)
		}
		dims, err := dimensionValues(row, titleIdx)
		if err != nil {
			return nil, fmt.Errorf("page row %d: %w", i, err)
		}
		views, err := parseCount(row.MetricValues[0].Value)
		if err != nil {
			return nil, fmt.Errorf("page row %d: %w", i, err)
		}
		rows = append(rows, PageRow{PageTitle: dims[0], PageViews: views})
	}
	return rows, nil
}

func dimensionValues(row api.Row, indexes ...int) ([]string, error) {
	values := make([]string, len(indexes))
	for i, idx := range indexes {
		if idx >= len(row.DimensionValues) {
			return nil, fmt.Errorf("%w: missing dimension %d", ErrMalformedRow, idx)
		}
		values[i] = row.DimensionValues[idx].Value
	}
	return values, nil
}

func headerIndex(headers []api.DimensionHeader, name string) int {
	for i, h := range headers {
		if h.Name == name {
			return i
		}
	}
	return -1
}

func headerIndexOr(headers []api.DimensionHeader, name string, fallback int) int {
	if i := headerIndex(headers, name); i >= 0 {
		return i
	}
	return fallback
}

func parseMetric(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: metric value %q", ErrMalformedRow, value)
	}
	return v, nil
}

func parseCount(value string) (int64, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	v, err := parseMetric(value)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
