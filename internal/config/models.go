package config

import "time"

// Credential modes understood by api.NewCredentialProvider
const (
	CredentialsADC            = "adc"
	CredentialsServiceAccount = "service_account"
	CredentialsRefreshToken   = "refresh_token"
)

// Registry backends
const (
	RegistrySheets   = "sheets"
	RegistryWorkbook = "workbook"
	RegistryStatic   = "static"
)

// AppConfig holds global application configuration
type AppConfig struct {
	Credentials CredentialsConfig `json:"credentials" yaml:"credentials"`
	Registry    RegistryConfig    `json:"registry" yaml:"registry"`
	Narrative   NarrativeConfig   `json:"narrative" yaml:"narrative"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Report      ReportConfig      `json:"report" yaml:"report"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"updated_at"`
}

// CredentialsConfig selects how Google API calls are authenticated
type CredentialsConfig struct {
	Mode               string `json:"mode" yaml:"mode"`                                                     // adc, service_account, refresh_token
	ServiceAccountFile string `json:"service_account_file,omitempty" yaml:"service_account_file,omitempty"` // JSON key path
	ClientID           string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret       string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	RefreshToken       string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
}

// RegistryConfig describes where the site list lives
type RegistryConfig struct {
	Backend         string `json:"backend" yaml:"backend"` // sheets, workbook, static
	SheetURL        string `json:"sheet_url,omitempty" yaml:"sheet_url,omitempty"`
	SheetName       string `json:"sheet_name,omitempty" yaml:"sheet_name,omitempty"` // empty = first sheet
	WorkbookPath    string `json:"workbook_path,omitempty" yaml:"workbook_path,omitempty"`
	StaticSiteName  string `json:"static_site_name,omitempty" yaml:"static_site_name,omitempty"`
	StaticProperty  string `json:"static_property_id,omitempty" yaml:"static_property_id,omitempty"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

// NarrativeConfig configures the generative recommendation
type NarrativeConfig struct {
	Provider     string  `json:"provider" yaml:"provider"` // gemini, openai
	Model        string  `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature  float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	GeminiAPIKey string  `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	OpenAIAPIKey string  `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
	DefaultGoal  string  `json:"default_goal,omitempty" yaml:"default_goal,omitempty"`
}

// CacheConfig controls the DuckDB report cache
type CacheConfig struct {
	Enabled        bool `json:"enabled" yaml:"enabled"`
	ReportTTLHours int  `json:"report_ttl_hours" yaml:"report_ttl_hours"`
}

// ReportConfig holds report rendering switches
type ReportConfig struct {
	// SignedDurationDelta renders negative duration deltas as "-M分S秒" of the
	// magnitude instead of the floor/modulo form. Off until product decides.
	SignedDurationDelta bool `json:"signed_duration_delta" yaml:"signed_duration_delta"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // console, json
}

// Secrets are read from the environment (or .env) and override the file
type Secrets struct {
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	SheetURL        string `envconfig:"GOOGLE_SHEET_URL"`
	CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	LogLevel        string `envconfig:"GA4INSIGHT_LOG_LEVEL"`
	LogFormat       string `envconfig:"GA4INSIGHT_LOG_FORMAT"`
}
