package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, CredentialsADC, cfg.Credentials.Mode)
	assert.Equal(t, RegistrySheets, cfg.Registry.Backend)
	assert.Equal(t, 600, cfg.Registry.CacheTTLSeconds)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "gemini", cfg.Narrative.Provider)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg := Default()
	cfg.Registry.Backend = RegistryWorkbook
	cfg.Registry.WorkbookPath = "/tmp/sites.xlsx"
	cfg.Cache.Enabled = false
	require.NoError(t, SaveConfigTo(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, RegistryWorkbook, loaded.Registry.Backend)
	assert.Equal(t, "/tmp/sites.xlsx", loaded.Registry.WorkbookPath)
	assert.False(t, loaded.Cache.Enabled)
	// untouched defaults survive a partial file
	assert.Equal(t, "info", loaded.Logging.Level)
}

func TestApplyEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GOOGLE_SHEET_URL=https://docs.google.com/spreadsheets/d/abc/edit\n"), 0600))

	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GA4INSIGHT_LOG_LEVEL", "debug")
	// godotenv.Load never overrides, so make sure the key starts unset
	t.Setenv("GOOGLE_SHEET_URL", "")
	require.NoError(t, os.Unsetenv("GOOGLE_SHEET_URL"))

	cfg := Default()
	require.NoError(t, ApplyEnvironment(cfg, envFile))

	assert.Equal(t, "gem-key", cfg.Narrative.GeminiAPIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc/edit", cfg.Registry.SheetURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"sheets with url", func(c *AppConfig) { c.Registry.SheetURL = "https://docs.google.com/spreadsheets/d/x" }, false},
		{"sheets without url", func(c *AppConfig) {}, true},
		{"unknown credentials mode", func(c *AppConfig) {
			c.Registry.SheetURL = "u"
			c.Credentials.Mode = "magic"
		}, true},
		{"service account without file", func(c *AppConfig) {
			c.Registry.SheetURL = "u"
			c.Credentials.Mode = CredentialsServiceAccount
		}, true},
		{"refresh token complete", func(c *AppConfig) {
			c.Registry.SheetURL = "u"
			c.Credentials = CredentialsConfig{Mode: CredentialsRefreshToken, ClientID: "id", ClientSecret: "s", RefreshToken: "1//t"}
		}, false},
		{"static with numeric id", func(c *AppConfig) {
			c.Registry = RegistryConfig{Backend: RegistryStatic, StaticSiteName: "Acme", StaticProperty: "123456789"}
		}, false},
		{"static with bad id", func(c *AppConfig) {
			c.Registry = RegistryConfig{Backend: RegistryStatic, StaticSiteName: "Acme", StaticProperty: "G-ABC"}
		}, true},
		{"workbook without path", func(c *AppConfig) { c.Registry.Backend = RegistryWorkbook }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
