package query

import (
	"time"

	"ga4insight/internal/api"
)

// GA4 field names used by the dashboard reports
const (
	MetricActiveUsers            = "activeUsers"
	MetricSessions               = "sessions"
	MetricConversions            = "conversions"
	MetricAverageSessionDuration = "averageSessionDuration"
	MetricScreenPageViews        = "screenPageViews"

	DimensionDateRange      = "dateRange"
	DimensionChannelGroup   = "sessionDefaultChannelGroup"
	DimensionDeviceCategory = "deviceCategory"
	DimensionAgeBracket     = "userAgeBracket"
	DimensionPageTitle      = "pageTitle"
)

// Date range names, echoed back by GA4 in the dateRange dimension
const (
	RangeCurrent  = "current"
	RangePrevious = "previous"
)

// KPIMetrics is the canonical KPI order: users, sessions, conversions, duration
var KPIMetrics = []string{
	MetricActiveUsers,
	MetricSessions,
	MetricConversions,
	MetricAverageSessionDuration,
}

// Config represents a complete GA4 report definition
type Config struct {
	PropertyID string   `json:"property_id" yaml:"property_id"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Dimensions []string `json:"dimensions" yaml:"dimensions"`
	Metrics    []string `json:"metrics" yaml:"metrics"`

	DateRanges []DateRange `json:"date_ranges" yaml:"date_ranges"`

	Limit  int64 `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset int64 `json:"offset,omitempty" yaml:"offset,omitempty"`

	OrderBy []OrderByConfig `json:"order_by,omitempty" yaml:"order_by,omitempty"`
}

// DateRange is an inclusive YYYY-MM-DD window
type DateRange struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
}

// OrderByConfig represents sorting configuration
type OrderByConfig struct {
	FieldName  string `json:"field_name" yaml:"field_name"`                     // dimension or metric name
	FieldType  string `json:"field_type" yaml:"field_type"`                     // "dimension" or "metric"
	Descending bool   `json:"descending" yaml:"descending"`                     // true for DESC
	OrderType  string `json:"order_type,omitempty" yaml:"order_type,omitempty"` // dimensions only
}

// Result represents the outcome of one report execution
type Result struct {
	PropertyID    string    `json:"property_id"`
	QueryHash     string    `json:"query_hash"`
	Config        *Config   `json:"config"`
	ExecutedAt    time.Time `json:"executed_at"`
	ExecutionTime string    `json:"execution_time"`
	RowCount      int       `json:"row_count"`

	Response *api.RunReportResponse `json:"response,omitempty"`

	Error string `json:"error,omitempty"`
}

// KPI builds the totals report over both windows
func KPI(propertyID string, current, previous DateRange) *Config {
	current.Name = RangeCurrent
	previous.Name = RangePrevious
	return &Config{
		PropertyID: propertyID,
		Name:       "kpi",
		Metrics:    append([]string(nil), KPIMetrics...),
		DateRanges: []DateRange{current, previous},
	}
}

// Details builds the channel / device / age breakdown for the current window
func Details(propertyID string, current DateRange) *Config {
	current.Name = RangeCurrent
	return &Config{
		PropertyID: propertyID,
		Name:       "details",
		Dimensions: []string{DimensionChannelGroup, DimensionDeviceCategory, DimensionAgeBracket},
		Metrics:    []string{MetricActiveUsers},
		DateRanges: []DateRange{current},
	}
}

// TopPages builds the page view report ordered by views
func TopPages(propertyID string, current DateRange) *Config {
	current.Name = RangeCurrent
	return &Config{
		PropertyID: propertyID,
		Name:       "pages",
		Dimensions: []string{DimensionPageTitle},
		Metrics:    []string{MetricScreenPageViews},
		DateRanges: []DateRange{current},
		OrderBy: []OrderByConfig{
			{FieldName: MetricScreenPageViews, FieldType: "metric", Descending: true},
		},
	}
}
