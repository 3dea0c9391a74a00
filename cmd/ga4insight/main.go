package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "ga4insight",
		Short: "GA4 two-period dashboard with AI recommendations",
		Long: `GA4 Insight compares the last 30 days of a Google Analytics 4 property with the
30 days before, breaks traffic down by channel, page, age and device, and asks a
generative model for a short improvement plan toward your business goal.

Examples:
  ga4insight config set --registry sheets --sheet-url <url>
  ga4insight sites add "Acme Store" 123456789 --verify
  ga4insight dashboard --site "Acme Store" --goal sales
  ga4insight dashboard --no-narrative --export acme.xlsx --format xlsx`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "Configure credentials, the site registry and the narrative provider",
	}

	sitesCmd = &cobra.Command{
		Use:   "sites",
		Short: "Manage the site registry",
		Long:  "List, add and delete the sites (name and GA4 property ID) available to the dashboard",
	}

	goalsCmd = &cobra.Command{
		Use:   "goals",
		Short: "Business goals",
	}

	accountsCmd = &cobra.Command{
		Use:   "accounts",
		Short: "List GA4 accounts",
		Long:  "List all Google Analytics 4 accounts accessible by the configured credentials",
	}

	propertiesCmd = &cobra.Command{
		Use:   "properties",
		Short: "List GA4 properties",
		Long:  "List Google Analytics 4 properties within a specific account",
	}

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage report cache",
		Long:  "Inspect and clean the DuckDB cache of GA4 report responses",
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.ga4insight/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	// Config subcommands
	configSetCmd := &cobra.Command{
		Use:   "set",
		Short: "Update configuration values",
		Long:  "Update only the values given as flags and save the configuration",
		RunE:  configSetCmdHandler,
	}
	configSetCmd.Flags().String("credentials", "", "Credentials mode: adc, service_account, refresh_token")
	configSetCmd.Flags().String("service-account-file", "", "Service account JSON key file")
	configSetCmd.Flags().String("client-id", "", "Google OAuth client ID")
	configSetCmd.Flags().String("client-secret", "", "Google OAuth client secret")
	configSetCmd.Flags().String("refresh-token", "", "Google OAuth refresh token")
	configSetCmd.Flags().String("registry", "", "Registry backend: sheets, workbook, static")
	configSetCmd.Flags().String("sheet-url", "", "Google Sheet URL holding the site list")
	configSetCmd.Flags().String("sheet-name", "", "Worksheet name (default: first sheet)")
	configSetCmd.Flags().String("workbook", "", "Local .xlsx workbook holding the site list")
	configSetCmd.Flags().String("site-name", "", "Site name for the static registry")
	configSetCmd.Flags().String("property-id", "", "GA4 property ID for the static registry")
	configSetCmd.Flags().Int("registry-ttl", 0, "Seconds the site list is cached (0 disables)")
	configSetCmd.Flags().String("provider", "", "Narrative provider: gemini, openai")
	configSetCmd.Flags().String("model", "", "Narrative model name")
	configSetCmd.Flags().String("default-goal", "", "Goal key used when --goal is omitted")
	configSetCmd.Flags().Bool("cache", true, "Cache GA4 report responses")
	configSetCmd.Flags().Int("cache-ttl-hours", 0, "Hours a cached report stays fresh")
	configSetCmd.Flags().Bool("signed-duration-delta", false, "Render negative duration deltas with a sign")

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  configShowCmdHandler,
	}

	configCmd.AddCommand(configSetCmd, configShowCmd)

	// Sites subcommands
	sitesListSubCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered sites",
		RunE:  sitesListCmd,
	}

	sitesAddSubCmd := &cobra.Command{
		Use:   "add [name] [property-id]",
		Short: "Register a site",
		Args:  cobra.ExactArgs(2),
		RunE:  sitesAddCmd,
	}
	sitesAddSubCmd.Flags().Bool("verify", false, "Check the property exists with the Admin API first")

	sitesDeleteSubCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Remove a site",
		Args:  cobra.ExactArgs(1),
		RunE:  sitesDeleteCmd,
	}

	sitesCmd.AddCommand(sitesListSubCmd, sitesAddSubCmd, sitesDeleteSubCmd)

	goalsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List preset business goals",
		RunE:  goalsListCmd,
	})

	// Dashboard
	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Generate the comparative dashboard",
		Long: `Fetch the KPI, detail and page reports for one site, compare the current and
previous 30-day windows and print the dashboard with an AI recommendation.`,
		RunE: dashboardCmdHandler,
	}
	dashboardCmd.Flags().String("site", "", "Site name (optional when only one site is registered)")
	dashboardCmd.Flags().String("goal", "", "Preset goal key (see 'ga4insight goals list')")
	dashboardCmd.Flags().String("goal-text", "", "Free-form goal, overrides --goal")
	dashboardCmd.Flags().Bool("no-narrative", false, "Skip the AI recommendation")
	dashboardCmd.Flags().Bool("no-cache", false, "Bypass the report cache")
	dashboardCmd.Flags().String("export", "", "Also export the dashboard to this file")
	dashboardCmd.Flags().String("format", "", "Export format: json, csv, tsv, xlsx (default from extension)")
	dashboardCmd.Flags().Bool("prettify", true, "Indent JSON exports")

	// Accounts / properties
	accountsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all accessible GA4 accounts",
		RunE:  accountsListCmd,
	})

	propertiesListSubCmd := &cobra.Command{
		Use:   "list",
		Short: "List properties for an account",
		RunE:  propertiesListCmd,
	}
	propertiesListSubCmd.Flags().String("account", "", "GA4 account ID (required)")
	propertiesListSubCmd.MarkFlagRequired("account")

	propertiesCmd.AddCommand(propertiesListSubCmd, &cobra.Command{
		Use:   "show [property-id]",
		Short: "Show property details",
		Args:  cobra.ExactArgs(1),
		RunE:  propertiesShowCmd,
	})

	// Cache subcommands
	cacheStatsSubCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE:  cacheStatsCmd,
	}

	cacheCleanupSubCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Clean up expired cache entries",
		RunE:  cacheCleanupCmd,
	}
	cacheCleanupSubCmd.Flags().Bool("all", false, "Clean all cache entries (use with caution)")
	cacheCleanupSubCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	cacheCmd.AddCommand(cacheStatsSubCmd, cacheCleanupSubCmd)

	rootCmd.AddCommand(configCmd, sitesCmd, goalsCmd, dashboardCmd, accountsCmd, propertiesCmd, cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withHint appends a remediation line to err
func withHint(err error, hint string) error {
	return fmt.Errorf("%w\n💡 %s", err, hint)
}
