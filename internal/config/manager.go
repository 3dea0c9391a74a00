package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = ".ga4insight"
	ConfigFileName = "config.yaml"
)

// ErrInvalidConfig marks configuration problems that must halt before any query
var ErrInvalidConfig = errors.New("invalid configuration")

var numericID = regexp.MustCompile(`^[0-9]+$`)

// GetConfigDir returns the path to the config directory (~/.ga4insight)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ConfigDirName), nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Default returns a config with every default filled in
func Default() *AppConfig {
	now := time.Now()
	return &AppConfig{
		Credentials: CredentialsConfig{Mode: CredentialsADC},
		Registry: RegistryConfig{
			Backend:         RegistrySheets,
			CacheTTLSeconds: 600,
		},
		Narrative: NarrativeConfig{
			Provider:    "gemini",
			DefaultGoal: "sales",
		},
		Cache: CacheConfig{
			Enabled:        true,
			ReportTTLHours: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LoadConfigFrom reads the config at path, falling back to defaults when the
// file does not exist. Missing fields keep their default values.
func LoadConfigFrom(configPath string) (*AppConfig, error) {
	cfg := Default()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfigTo writes the configuration to path with user-only permissions
func SaveConfigTo(configPath string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg.UpdatedAt = time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnvironment loads .env (if present) and overlays secrets from the
// environment onto cfg. Values already in the environment win over .env.
func ApplyEnvironment(cfg *AppConfig, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
	}

	var secrets Secrets
	if err := envconfig.Process("", &secrets); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if secrets.GeminiAPIKey != "" {
		cfg.Narrative.GeminiAPIKey = secrets.GeminiAPIKey
	}
	if secrets.OpenAIAPIKey != "" {
		cfg.Narrative.OpenAIAPIKey = secrets.OpenAIAPIKey
	}
	if secrets.SheetURL != "" {
		cfg.Registry.SheetURL = secrets.SheetURL
	}
	if secrets.CredentialsFile != "" && cfg.Credentials.ServiceAccountFile == "" {
		cfg.Credentials.ServiceAccountFile = secrets.CredentialsFile
	}
	if secrets.LogLevel != "" {
		cfg.Logging.Level = secrets.LogLevel
	}
	if secrets.LogFormat != "" {
		cfg.Logging.Format = secrets.LogFormat
	}
	return nil
}

// Validate checks credentials and registry settings. Narrative keys are
// checked separately since a dashboard can run without the narrative.
func (c *AppConfig) Validate() error {
	switch c.Credentials.Mode {
	case CredentialsADC:
	case CredentialsServiceAccount:
		if c.Credentials.ServiceAccountFile == "" {
			return fmt.Errorf("%w: service_account mode needs service_account_file or GOOGLE_APPLICATION_CREDENTIALS", ErrInvalidConfig)
		}
	case CredentialsRefreshToken:
		if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" || c.Credentials.RefreshToken == "" {
			return fmt.Errorf("%w: refresh_token mode needs client_id, client_secret and refresh_token", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown credentials mode %q", ErrInvalidConfig, c.Credentials.Mode)
	}

	switch c.Registry.Backend {
	case RegistrySheets:
		if c.Registry.SheetURL == "" {
			return fmt.Errorf("%w: sheets registry needs sheet_url or GOOGLE_SHEET_URL", ErrInvalidConfig)
		}
	case RegistryWorkbook:
		if c.Registry.WorkbookPath == "" {
			return fmt.Errorf("%w: workbook registry needs workbook_path", ErrInvalidConfig)
		}
	case RegistryStatic:
		if c.Registry.StaticSiteName == "" || !numericID.MatchString(c.Registry.StaticProperty) {
			return fmt.Errorf("%w: static registry needs static_site_name and a numeric static_property_id", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown registry backend %q", ErrInvalidConfig, c.Registry.Backend)
	}

	if c.Registry.CacheTTLSeconds < 0 {
		return fmt.Errorf("%w: cache_ttl_seconds cannot be negative", ErrInvalidConfig)
	}
	if c.Cache.ReportTTLHours < 0 {
		return fmt.Errorf("%w: report_ttl_hours cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// RegistryTTL returns the registry read cache freshness window
func (c *AppConfig) RegistryTTL() time.Duration {
	return time.Duration(c.Registry.CacheTTLSeconds) * time.Second
}

// CacheDir returns the directory holding the DuckDB report cache
func CacheDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cache"), nil
}
