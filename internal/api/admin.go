package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultAdminBaseURL = "https://analyticsadmin.googleapis.com/v1beta"

// AdminClient handles GA4 Admin API lookups used when registering sites
type AdminClient struct {
	credentials CredentialProvider
	baseURL     string
}

// NewAdminClient creates a new GA4 Admin API client
func NewAdminClient(credentials CredentialProvider) *AdminClient {
	return &AdminClient{
		credentials: credentials,
		baseURL:     DefaultAdminBaseURL,
	}
}

// WithBaseURL returns a copy of the client talking to another endpoint
func (c *AdminClient) WithBaseURL(baseURL string) *AdminClient {
	clone := *c
	clone.baseURL = baseURL
	return &clone
}

// Account represents a GA4 account
type Account struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	RegionCode  string    `json:"region_code" yaml:"region_code"`
	CreateTime  time.Time `json:"create_time" yaml:"create_time"`
}

// Property represents a GA4 property
type Property struct {
	ID           string    `json:"id" yaml:"id"` // e.g., "263883430"
	Name         string    `json:"name" yaml:"name"`
	DisplayName  string    `json:"display_name" yaml:"display_name"`
	TimeZone     string    `json:"time_zone" yaml:"time_zone"`
	CurrencyCode string    `json:"currency_code" yaml:"currency_code"`
	ServiceLevel string    `json:"service_level" yaml:"service_level"`
	CreateTime   time.Time `json:"create_time" yaml:"create_time"`
}

// GA4 Admin API response structures
type accountsResponse struct {
	Accounts []struct {
		Name        string `json:"name"`        // "accounts/71671299"
		DisplayName string `json:"displayName"` // "Acme Corp"
		RegionCode  string `json:"regionCode"`  // "JP"
		CreateTime  string `json:"createTime"`  // "2015-12-22T21:15:23.770Z"
		Deleted     bool   `json:"deleted"`
	} `json:"accounts"`
	NextPageToken string `json:"nextPageToken"`
}

type propertyResponse struct {
	Name         string `json:"name"`        // "properties/328687832"
	DisplayName  string `json:"displayName"` // "Acme - Prod"
	CreateTime   string `json:"createTime"`
	CurrencyCode string `json:"currencyCode"`
	TimeZone     string `json:"timeZone"`
	ServiceLevel string `json:"serviceLevel"`
	Deleted      bool   `json:"deleted"`
}

type propertiesResponse struct {
	Properties    []propertyResponse `json:"properties"`
	NextPageToken string             `json:"nextPageToken"`
}

// ListAccounts retrieves all GA4 accounts visible to the credentials
func (c *AdminClient) ListAccounts(ctx context.Context) ([]Account, error) {
	var apiResponse accountsResponse
	if err := c.get(ctx, fmt.Sprintf("%s/accounts", c.baseURL), &apiResponse); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(apiResponse.Accounts))
	for _, apiAccount := range apiResponse.Accounts {
		if apiAccount.Deleted {
			continue
		}
		createTime, _ := time.Parse(time.RFC3339, apiAccount.CreateTime)
		accounts = append(accounts, Account{
			ID:          extractIDFromResource(apiAccount.Name, "accounts/"),
			Name:        apiAccount.Name,
			DisplayName: apiAccount.DisplayName,
			RegionCode:  apiAccount.RegionCode,
			CreateTime:  createTime,
		})
	}

	return accounts, nil
}

// ListProperties retrieves all properties of an account
func (c *AdminClient) ListProperties(ctx context.Context, accountID string) ([]Property, error) {
	// GA4 Admin API requires a filter parameter for listing properties
	url := fmt.Sprintf("%s/properties?filter=parent:accounts/%s", c.baseURL, accountID)

	var apiResponse propertiesResponse
	if err := c.get(ctx, url, &apiResponse); err != nil {
		return nil, err
	}

	properties := make([]Property, 0, len(apiResponse.Properties))
	for _, p := range apiResponse.Properties {
		if p.Deleted {
			continue
		}
		properties = append(properties, toProperty(p))
	}

	return properties, nil
}

// GetProperty retrieves a single property, used to verify ids before registering
func (c *AdminClient) GetProperty(ctx context.Context, propertyID string) (*Property, error) {
	var apiResponse propertyResponse
	if err := c.get(ctx, fmt.Sprintf("%s/properties/%s", c.baseURL, propertyID), &apiResponse); err != nil {
		return nil, err
	}

	if apiResponse.Deleted {
		return nil, fmt.Errorf("property %s has been deleted", propertyID)
	}

	property := toProperty(apiResponse)
	return &property, nil
}

func (c *AdminClient) get(ctx context.Context, url string, out interface{}) error {
	httpClient, err := c.credentials.HTTPClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to get authenticated HTTP client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request to GA4 Admin API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		return ErrPropertyNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GA4 Admin API returned status %d: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Admin API response: %w", err)
	}
	return nil
}

func toProperty(p propertyResponse) Property {
	createTime, _ := time.Parse(time.RFC3339, p.CreateTime)
	return Property{
		ID:           extractIDFromResource(p.Name, "properties/"),
		Name:         p.Name,
		DisplayName:  p.DisplayName,
		TimeZone:     p.TimeZone,
		CurrencyCode: p.CurrencyCode,
		ServiceLevel: p.ServiceLevel,
		CreateTime:   createTime,
	}
}

// extractIDFromResource turns "properties/123" into "123"
func extractIDFromResource(resourceName, prefix string) string {
	return strings.TrimPrefix(resourceName, prefix)
}
