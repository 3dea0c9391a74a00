package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ga4insight/internal/config"
)

func configSetCmdHandler(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 Updating configuration...")

	// no ApplyEnvironment here: environment secrets stay out of the saved file
	configPath, err := configPathFrom(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfigFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setInt := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	setString("credentials", &cfg.Credentials.Mode)
	setString("service-account-file", &cfg.Credentials.ServiceAccountFile)
	setString("client-id", &cfg.Credentials.ClientID)
	setString("client-secret", &cfg.Credentials.ClientSecret)
	setString("refresh-token", &cfg.Credentials.RefreshToken)
	setString("registry", &cfg.Registry.Backend)
	setString("sheet-url", &cfg.Registry.SheetURL)
	setString("sheet-name", &cfg.Registry.SheetName)
	setString("workbook", &cfg.Registry.WorkbookPath)
	setString("site-name", &cfg.Registry.StaticSiteName)
	setString("property-id", &cfg.Registry.StaticProperty)
	setInt("registry-ttl", &cfg.Registry.CacheTTLSeconds)
	setString("provider", &cfg.Narrative.Provider)
	setString("model", &cfg.Narrative.Model)
	setString("default-goal", &cfg.Narrative.DefaultGoal)
	setBool("cache", &cfg.Cache.Enabled)
	setInt("cache-ttl-hours", &cfg.Cache.ReportTTLHours)
	setBool("signed-duration-delta", &cfg.Report.SignedDurationDelta)

	if err := config.SaveConfigTo(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println("✅ Configuration saved")
	fmt.Printf("📁 Config file: %s\n", configPath)

	// incomplete settings are allowed while configuring step by step
	if err := cfg.Validate(); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	return nil
}

func configShowCmdHandler(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	fmt.Println("📋 Current GA4 Insight Configuration:")
	fmt.Println()
	fmt.Printf("📁 Config Location: %s\n", a.configPath)
	fmt.Println()

	fmt.Printf("🔑 Credentials: %s\n", cfg.Credentials.Mode)
	switch cfg.Credentials.Mode {
	case config.CredentialsServiceAccount:
		fmt.Printf("   📄 Key file: %s\n", orNotSet(cfg.Credentials.ServiceAccountFile))
	case config.CredentialsRefreshToken:
		fmt.Printf("   🆔 Client ID: %s\n", mask(cfg.Credentials.ClientID))
		fmt.Printf("   🔐 Client Secret: %s\n", hidden(cfg.Credentials.ClientSecret))
		fmt.Printf("   🔄 Refresh Token: %s\n", hidden(cfg.Credentials.RefreshToken))
	}

	fmt.Printf("🗂️  Registry: %s (cache %ds)\n", cfg.Registry.Backend, cfg.Registry.CacheTTLSeconds)
	switch cfg.Registry.Backend {
	case config.RegistrySheets:
		fmt.Printf("   🔗 Sheet: %s\n", orNotSet(cfg.Registry.SheetURL))
		if cfg.Registry.SheetName != "" {
			fmt.Printf("   📑 Worksheet: %s\n", cfg.Registry.SheetName)
		}
	case config.RegistryWorkbook:
		fmt.Printf("   📗 Workbook: %s\n", orNotSet(cfg.Registry.WorkbookPath))
	case config.RegistryStatic:
		fmt.Printf("   🏠 Site: %s (%s)\n", orNotSet(cfg.Registry.StaticSiteName), orNotSet(cfg.Registry.StaticProperty))
	}

	fmt.Printf("🤖 Narrative: %s", cfg.Narrative.Provider)
	if cfg.Narrative.Model != "" {
		fmt.Printf(" (%s)", cfg.Narrative.Model)
	}
	fmt.Println()
	fmt.Printf("   🔐 GEMINI_API_KEY: %s\n", hidden(cfg.Narrative.GeminiAPIKey))
	fmt.Printf("   🔐 OPENAI_API_KEY: %s\n", hidden(cfg.Narrative.OpenAIAPIKey))
	fmt.Printf("   🎯 Default goal: %s\n", orNotSet(cfg.Narrative.DefaultGoal))

	if cfg.Cache.Enabled {
		fmt.Printf("💾 Report cache: enabled (%dh)\n", cfg.Cache.ReportTTLHours)
	} else {
		fmt.Println("💾 Report cache: disabled")
	}
	fmt.Printf("⏱️  Signed duration delta: %t\n", cfg.Report.SignedDurationDelta)

	if err := cfg.Validate(); err != nil {
		fmt.Println()
		fmt.Printf("❌ %v\n", err)
	}

	fmt.Println()
	fmt.Printf("📅 Created: %s\n", cfg.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("🔄 Updated: %s\n", cfg.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func hidden(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "[HIDDEN] (configured)"
}

func mask(s string) string {
	if len(s) <= 16 {
		return hidden(s)
	}
	return s[:12] + "..." + s[len(s)-4:]
}
