package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ga4insight/internal/api"
	"ga4insight/internal/cache"
	"ga4insight/internal/config"
	"ga4insight/internal/logger"
	"ga4insight/internal/narrative"
	"ga4insight/internal/registry"
)

const serviceName = "ga4insight"

// app holds what every command needs after startup
type app struct {
	cfg        *config.AppConfig
	configPath string
	log        *zap.Logger
	creds      api.CredentialProvider
}

// loadApp reads the config file and the environment and builds the logger.
// Credentials are only resolved when validate is set.
func loadApp(cmd *cobra.Command, validate bool) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, err := configPathFrom(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfigFrom(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.ApplyEnvironment(cfg); err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(level, cfg.Logging.Format, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, configPath: configPath, log: log}
	if !validate {
		return a, nil
	}

	if err := cfg.Validate(); err != nil {
		a.close()
		return nil, withHint(err, "Run 'ga4insight config set --help' to see the available settings")
	}

	creds, err := api.NewCredentialProvider(cfg.Credentials)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create credentials: %w", err)
	}
	a.creds = creds
	log.Debug("credentials ready", zap.String("mode", creds.Name()))

	return a, nil
}

func configPathFrom(cmd *cobra.Command) (string, error) {
	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// close flushes the logger
func (a *app) close() {
	_ = a.log.Sync()
}

// dataClient creates the Data API client, cached unless disabled. A cache
// that cannot be opened only downgrades to uncached mode.
func (a *app) dataClient(noCache bool) *api.DataClient {
	opts := []api.DataClientOption{api.WithDataLogger(a.log)}

	if a.cfg.Cache.Enabled && !noCache {
		if cacheClient, err := a.openCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create cache client, using non-cached mode: %v\n", err)
		} else {
			ttl := time.Duration(a.cfg.Cache.ReportTTLHours) * time.Hour
			opts = append(opts, api.WithCache(cacheClient, ttl))
		}
	}

	return api.NewDataClient(a.creds, opts...)
}

func (a *app) openCache() (*cache.CacheClient, error) {
	dir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewCacheClient(dir)
}

func (a *app) openRegistry(ctx context.Context) (*registry.CachedRegistry, error) {
	sites, err := registry.Open(ctx, a.cfg.Registry, a.cfg.RegistryTTL(), a.creds, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open site registry: %w", err)
	}
	return sites, nil
}

func (a *app) recommender() (*narrative.Service, error) {
	provider, err := narrative.NewProvider(narrative.ConfigFrom(a.cfg.Narrative))
	if err != nil {
		return nil, err
	}
	return narrative.NewService(provider, a.log), nil
}

func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
