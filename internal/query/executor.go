package query

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"

	"ga4insight/internal/api"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Runner executes raw report requests; satisfied by *api.DataClient
type Runner interface {
	RunReport(ctx context.Context, request *api.RunReportRequest) (*api.RunReportResponse, error)
}

// Executor handles GA4 query validation and execution
type Executor struct {
	runner Runner
}

// NewExecutor creates a new query executor
func NewExecutor(runner Runner) *Executor {
	return &Executor{runner: runner}
}

// Execute runs a query configuration and returns results
func (e *Executor) Execute(ctx context.Context, config *Config) (*Result, error) {
	startTime := time.Now()

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	request := ToRequest(config)
	result := &Result{
		PropertyID: config.PropertyID,
		QueryHash:  api.QueryHash(request),
		Config:     config,
		ExecutedAt: startTime,
	}

	response, err := e.runner.RunReport(ctx, request)
	result.ExecutionTime = time.Since(startTime).String()
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("%s report: %w", config.Name, err)
	}

	result.Response = response
	result.RowCount = len(response.Rows)
	return result, nil
}

// Validate checks a query configuration and fills defaults
func Validate(config *Config) error {
	if config.PropertyID == "" {
		return fmt.Errorf("property ID is required")
	}
	if len(config.Metrics) == 0 {
		return fmt.Errorf("at least one metric is required")
	}
	if len(config.DateRanges) == 0 {
		return fmt.Errorf("at least one date range is required")
	}
	if len(config.DateRanges) > 4 {
		return fmt.Errorf("at most four date ranges are allowed")
	}
	for i, dr := range config.DateRanges {
		if !isoDate.MatchString(dr.StartDate) || !isoDate.MatchString(dr.EndDate) {
			return fmt.Errorf("date range %d must use YYYY-MM-DD dates", i+1)
		}
		if dr.StartDate > dr.EndDate {
			return fmt.Errorf("date range %d starts after it ends", i+1)
		}
	}

	if config.Limit > api.MaxRowLimit {
		return fmt.Errorf("limit cannot exceed 250,000 rows")
	}
	if config.Limit <= 0 {
		config.Limit = api.DefaultRowLimit
	}
	if config.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}

	for i := range config.OrderBy {
		if err := validateOrderBy(&config.OrderBy[i], config); err != nil {
			return fmt.Errorf("order by %d is invalid: %w", i+1, err)
		}
	}

	return nil
}

func validateOrderBy(orderBy *OrderByConfig, config *Config) error {
	if orderBy.FieldName == "" {
		return fmt.Errorf("field name is required for order by")
	}

	switch orderBy.FieldType {
	case "dimension":
		if !slices.Contains(config.Dimensions, orderBy.FieldName) {
			return fmt.Errorf("dimension '%s' not found in query dimensions", orderBy.FieldName)
		}
		if orderBy.OrderType != "" {
			validTypes := []string{"ALPHANUMERIC", "CASE_INSENSITIVE_ALPHANUMERIC", "NUMERIC"}
			if !slices.Contains(validTypes, orderBy.OrderType) {
				return fmt.Errorf("invalid order type for dimension: %s", orderBy.OrderType)
			}
		}

	case "metric":
		if !slices.Contains(config.Metrics, orderBy.FieldName) {
			return fmt.Errorf("metric '%s' not found in query metrics", orderBy.FieldName)
		}

	default:
		// Infer the field type from the query
		if slices.Contains(config.Dimensions, orderBy.FieldName) {
			orderBy.FieldType = "dimension"
		} else if slices.Contains(config.Metrics, orderBy.FieldName) {
			orderBy.FieldType = "metric"
		} else {
			return fmt.Errorf("field '%s' not found in dimensions or metrics", orderBy.FieldName)
		}
	}

	return nil
}

// ToRequest converts a validated Config to a GA4 RunReportRequest
func ToRequest(config *Config) *api.RunReportRequest {
	request := &api.RunReportRequest{
		Property: config.PropertyID,
		Limit:    config.Limit,
		Offset:   config.Offset,
	}

	for _, dr := range config.DateRanges {
		request.DateRanges = append(request.DateRanges, api.DateRange{
			StartDate: dr.StartDate,
			EndDate:   dr.EndDate,
			Name:      dr.Name,
		})
	}

	for _, dimName := range config.Dimensions {
		request.Dimensions = append(request.Dimensions, api.Dimension{Name: dimName})
	}

	for _, metricName := range config.Metrics {
		request.Metrics = append(request.Metrics, api.Metric{Name: metricName})
	}

	for _, orderBy := range config.OrderBy {
		apiOrderBy := api.OrderBy{Desc: orderBy.Descending}
		if orderBy.FieldType == "dimension" {
			apiOrderBy.Dimension = &api.DimensionOrderBy{
				DimensionName: orderBy.FieldName,
				OrderType:     orderBy.OrderType,
			}
		} else {
			apiOrderBy.Metric = &api.MetricOrderBy{MetricName: orderBy.FieldName}
		}
		request.OrderBys = append(request.OrderBys, apiOrderBy)
	}

	return request
}
