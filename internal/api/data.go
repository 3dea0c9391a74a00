package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultDataBaseURL = "https://analyticsdata.googleapis.com/v1beta"

	DefaultRowLimit = 10000
	MaxRowLimit     = 250000

	DefaultQueryCacheTTL = time.Hour
)

// ErrPropertyNotFound is returned when GA4 answers 404 for a property
var ErrPropertyNotFound = errors.New("property not found or not accessible")

// DataClient handles GA4 Data API operations
type DataClient struct {
	credentials CredentialProvider
	baseURL     string
	cacheClient CacheInterface // optional response cache
	cacheTTL    time.Duration
	log         *zap.Logger
}

// CacheInterface defines the report caching contract
type CacheInterface interface {
	GetCachedQuery(ctx context.Context, queryHash string, resultData interface{}) (bool, error)
	CacheQuery(ctx context.Context, propertyID, queryHash string, resultData interface{}, rowCount int, ttl time.Duration) error
	Close() error
}

// DataClientOption customises a DataClient
type DataClientOption func(*DataClient)

// WithCache enables response caching for RunReport
func WithCache(cache CacheInterface, ttl time.Duration) DataClientOption {
	return func(c *DataClient) {
		c.cacheClient = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithDataBaseURL points the client at another endpoint
func WithDataBaseURL(baseURL string) DataClientOption {
	return func(c *DataClient) { c.baseURL = baseURL }
}

// WithDataLogger sets the logger
func WithDataLogger(log *zap.Logger) DataClientOption {
	return func(c *DataClient) { c.log = log }
}

// NewDataClient creates a new GA4 Data API client
func NewDataClient(credentials CredentialProvider, opts ...DataClientOption) *DataClient {
	c := &DataClient{
		credentials: credentials,
		baseURL:     DefaultDataBaseURL,
		cacheTTL:    DefaultQueryCacheTTL,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes any resources (like cache connections)
func (c *DataClient) Close() error {
	if c.cacheClient != nil {
		return c.cacheClient.Close()
	}
	return nil
}

// RunReport API structures
type RunReportRequest struct {
	Property            string      `json:"-"` // Property ID (not in JSON body)
	Dimensions          []Dimension `json:"dimensions,omitempty"`
	Metrics             []Metric    `json:"metrics,omitempty"`
	DateRanges          []DateRange `json:"dateRanges"`
	Offset              int64       `json:"offset,omitempty"`
	Limit               int64       `json:"limit,omitempty"`
	OrderBys            []OrderBy   `json:"orderBys,omitempty"`
	KeepEmptyRows       bool        `json:"keepEmptyRows,omitempty"`
	ReturnPropertyQuota bool        `json:"returnPropertyQuota,omitempty"`
}

type RunReportResponse struct {
	DimensionHeaders []DimensionHeader `json:"dimensionHeaders"`
	MetricHeaders    []MetricHeader    `json:"metricHeaders"`
	Rows             []Row             `json:"rows"`
	RowCount         int               `json:"rowCount"`
	Metadata         ResponseMetadata  `json:"metadata"`
	PropertyQuota    *PropertyQuota    `json:"propertyQuota,omitempty"`
	Kind             string            `json:"kind"`
}

type Dimension struct {
	Name string `json:"name"`
}

type Metric struct {
	Name string `json:"name"`
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Name      string `json:"name,omitempty"`
}

type OrderBy struct {
	Desc      bool              `json:"desc,omitempty"`
	Dimension *DimensionOrderBy `json:"dimension,omitempty"`
	Metric    *MetricOrderBy    `json:"metric,omitempty"`
}

type DimensionOrderBy struct {
	DimensionName string `json:"dimensionName"`
	OrderType     string `json:"orderType,omitempty"` // ALPHANUMERIC, CASE_INSENSITIVE_ALPHANUMERIC, NUMERIC
}

type MetricOrderBy struct {
	MetricName string `json:"metricName"`
}

type DimensionHeader struct {
	Name string `json:"name"`
}

type MetricHeader struct {
	Name string `json:"name"`
	Type string `json:"type"` // TYPE_INTEGER, TYPE_FLOAT, TYPE_SECONDS, ...
}

type Row struct {
	DimensionValues []DimensionValue `json:"dimensionValues"`
	MetricValues    []MetricValue    `json:"metricValues"`
}

type DimensionValue struct {
	Value string `json:"value"`
}

type MetricValue struct {
	Value string `json:"value"`
}

type ResponseMetadata struct {
	CurrencyCode         string `json:"currencyCode"`
	TimeZone             string `json:"timeZone"`
	EmptyReason          string `json:"emptyReason,omitempty"`
	DataLossFromOtherRow bool   `json:"dataLossFromOtherRow,omitempty"`
}

type PropertyQuota struct {
	TokensPerDay       *QuotaStatus `json:"tokensPerDay,omitempty"`
	TokensPerHour      *QuotaStatus `json:"tokensPerHour,omitempty"`
	ConcurrentRequests *QuotaStatus `json:"concurrentRequests,omitempty"`
}

type QuotaStatus struct {
	Consumed  int `json:"consumed,omitempty"`
	Remaining int `json:"remaining,omitempty"`
}

// RunReport executes a GA4 report query
func (c *DataClient) RunReport(ctx context.Context, request *RunReportRequest) (*RunReportResponse, error) {
	if request.Property == "" {
		return nil, fmt.Errorf("property ID is required")
	}
	if len(request.DateRanges) == 0 {
		return nil, fmt.Errorf("at least one date range is required")
	}
	if len(request.DateRanges) > 4 {
		return nil, fmt.Errorf("at most four date ranges are allowed")
	}

	if request.Limit == 0 {
		request.Limit = DefaultRowLimit
	}
	if request.Limit > MaxRowLimit {
		return nil, fmt.Errorf("limit cannot exceed 250,000 rows")
	}

	var queryHash string
	if c.cacheClient != nil {
		queryHash = QueryHash(request)
		var cached RunReportResponse
		found, err := c.cacheClient.GetCachedQuery(ctx, queryHash, &cached)
		if err != nil {
			c.log.Warn("report cache lookup failed", zap.Error(err))
		} else if found {
			c.log.Debug("report served from cache",
				zap.String("property_id", request.Property),
				zap.String("query_hash", queryHash[:12]))
			return &cached, nil
		}
	}

	httpClient, err := c.credentials.HTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated HTTP client: %w", err)
	}

	url := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, request.Property)

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request to GA4 Data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("property %s: %w", request.Property, ErrPropertyNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("GA4 Data API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var reportResponse RunReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&reportResponse); err != nil {
		return nil, fmt.Errorf("failed to decode report response: %w", err)
	}

	c.log.Debug("report fetched",
		zap.String("property_id", request.Property),
		zap.Int("rows", len(reportResponse.Rows)),
		zap.Duration("elapsed", time.Since(started)))

	if c.cacheClient != nil && queryHash != "" {
		if err := c.cacheClient.CacheQuery(ctx, request.Property, queryHash, reportResponse, reportResponse.RowCount, c.cacheTTL); err != nil {
			c.log.Warn("failed to cache report", zap.Error(err))
		}
	}

	return &reportResponse, nil
}

// QueryHash creates a deterministic hash for a report request. The property
// is not part of the JSON body, so it is mixed in explicitly.
func QueryHash(request *RunReportRequest) string {
	jsonData, _ := json.Marshal(request)
	hash := sha256.Sum256(append([]byte(request.Property+"|"), jsonData...))
	return fmt.Sprintf("%x", hash)
}
