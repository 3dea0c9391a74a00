package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"ga4insight/internal/config"
)

const (
	// OAuth2 scopes required for GA4 reporting and the site registry sheet
	AnalyticsReadOnlyScope = "https://www.googleapis.com/auth/analytics.readonly"
	SpreadsheetsScope      = "https://www.googleapis.com/auth/spreadsheets"

	// Token refresh buffer - refresh tokens 5 minutes before expiry
	TokenRefreshBuffer = 5 * time.Minute
)

// Scopes requested by every credential provider
var Scopes = []string{AnalyticsReadOnlyScope, SpreadsheetsScope}

// CredentialProvider hands out authenticated HTTP clients for Google APIs
type CredentialProvider interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
	Name() string
}

// NewCredentialProvider picks the provider matching the configured mode
func NewCredentialProvider(cfg config.CredentialsConfig) (CredentialProvider, error) {
	switch cfg.Mode {
	case config.CredentialsADC, "":
		return &DefaultCredentialsProvider{}, nil
	case config.CredentialsServiceAccount:
		if cfg.ServiceAccountFile == "" {
			return nil, fmt.Errorf("service account key file is not configured")
		}
		return &ServiceAccountProvider{keyFile: cfg.ServiceAccountFile}, nil
	case config.CredentialsRefreshToken:
		return NewRefreshTokenProvider(cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
	default:
		return nil, fmt.Errorf("unknown credentials mode %q", cfg.Mode)
	}
}

// DefaultCredentialsProvider uses Application Default Credentials
type DefaultCredentialsProvider struct {
	mu     sync.Mutex
	client *http.Client
}

func (p *DefaultCredentialsProvider) Name() string { return config.CredentialsADC }

func (p *DefaultCredentialsProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}

	p.client = oauth2.NewClient(ctx, creds.TokenSource)
	return p.client, nil
}

// ServiceAccountProvider authenticates with a service account JSON key
type ServiceAccountProvider struct {
	keyFile string

	mu     sync.Mutex
	client *http.Client
}

func (p *ServiceAccountProvider) Name() string { return config.CredentialsServiceAccount }

func (p *ServiceAccountProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	data, err := os.ReadFile(p.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	p.client = oauth2.NewClient(ctx, creds.TokenSource)
	return p.client, nil
}

// RefreshTokenProvider exchanges a user refresh token for access tokens
type RefreshTokenProvider struct {
	config       *oauth2.Config
	refreshToken string

	// Token cache to avoid repeated refresh calls
	tokenMutex  sync.RWMutex
	cachedToken *oauth2.Token
	cacheExpiry time.Time
}

// NewRefreshTokenProvider validates the OAuth client and token format
func NewRefreshTokenProvider(clientID, clientSecret, refreshToken string) (*RefreshTokenProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("OAuth credentials not configured - run 'ga4insight config set' first")
	}

	// Google refresh tokens start with "1//"
	if !strings.HasPrefix(refreshToken, "1//") {
		return nil, fmt.Errorf("invalid refresh token format - Google refresh tokens start with '1//'")
	}

	return &RefreshTokenProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		},
		refreshToken: refreshToken,
	}, nil
}

func (p *RefreshTokenProvider) Name() string { return config.CredentialsRefreshToken }

// GetAccessToken returns a cached access token or refreshes one
func (p *RefreshTokenProvider) GetAccessToken(ctx context.Context) (*oauth2.Token, error) {
	p.tokenMutex.RLock()
	if p.cachedToken != nil && time.Now().Before(p.cacheExpiry) {
		token := p.cachedToken
		p.tokenMutex.RUnlock()
		return token, nil
	}
	p.tokenMutex.RUnlock()

	return p.refresh(ctx)
}

func (p *RefreshTokenProvider) refresh(ctx context.Context) (*oauth2.Token, error) {
	p.tokenMutex.Lock()
	defer p.tokenMutex.Unlock()

	// Double-check cache after acquiring write lock
	if p.cachedToken != nil && time.Now().Before(p.cacheExpiry) {
		return p.cachedToken, nil
	}

	newToken, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: p.refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	if newToken.AccessToken == "" {
		return nil, fmt.Errorf("received empty access token")
	}

	cacheExpiry := newToken.Expiry
	if !cacheExpiry.IsZero() {
		cacheExpiry = cacheExpiry.Add(-TokenRefreshBuffer)
	} else {
		// Default 1-hour cache if no expiry provided
		cacheExpiry = time.Now().Add(1 * time.Hour)
	}

	p.cachedToken = newToken
	p.cacheExpiry = cacheExpiry

	return newToken, nil
}

// HTTPClient returns an HTTP client with automatic OAuth authentication
func (p *RefreshTokenProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	token, err := p.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	tokenSource := oauth2.ReuseTokenSource(token, &refreshTokenSource{provider: p, ctx: ctx})
	return oauth2.NewClient(ctx, tokenSource), nil
}

type refreshTokenSource struct {
	provider *RefreshTokenProvider
	ctx      context.Context
}

func (r *refreshTokenSource) Token() (*oauth2.Token, error) {
	return r.provider.GetAccessToken(r.ctx)
}

// StaticClientProvider wraps a ready-made client (fakes, proxies, tests)
type StaticClientProvider struct {
	Client *http.Client
}

func (p StaticClientProvider) Name() string { return "static" }

func (p StaticClientProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	if p.Client == nil {
		return http.DefaultClient, nil
	}
	return p.Client, nil
}
