package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ga4insight/internal/api"
	"ga4insight/internal/narrative"
	"ga4insight/internal/registry"
	"ga4insight/internal/render"
)

func sitesListCmd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	sites, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer sites.Close()

	list, err := sites.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to read site registry: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("❌ No sites registered")
		fmt.Println("💡 Use 'ga4insight sites add <name> <property-id>' to register one")
		return nil
	}

	fmt.Printf("🏠 Found %d site(s):\n\n", len(list))
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{s.Name, s.PropertyID}
	}
	for _, line := range render.Table([]string{registry.HeaderSiteName, registry.HeaderPropertyID}, rows, render.DefaultTableOptions()) {
		fmt.Println(line)
	}
	return nil
}

func sitesAddCmd(cmd *cobra.Command, args []string) error {
	site := registry.Site{Name: args[0], PropertyID: args[1]}
	verify, _ := cmd.Flags().GetBool("verify")

	if err := registry.Validate(site); err != nil {
		return err
	}

	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	if verify {
		fmt.Printf("🔍 Checking property %s...\n", site.PropertyID)
		property, err := api.NewAdminClient(a.creds).GetProperty(ctx, site.PropertyID)
		if err != nil {
			return fmt.Errorf("property check failed: %w", err)
		}
		fmt.Printf("✅ Found %s (%s, %s)\n", property.DisplayName, property.TimeZone, property.CurrencyCode)
	}

	sites, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer sites.Close()

	if err := sites.Append(ctx, site); err != nil {
		if errors.Is(err, registry.ErrReadOnly) {
			return withHint(err, "The static registry is set in the config file, use 'ga4insight config set --site-name --property-id'")
		}
		return fmt.Errorf("failed to add site: %w", err)
	}

	a.log.Info("site added", zap.String("site", site.Name), zap.String("property_id", site.PropertyID))
	fmt.Printf("✅ Added site '%s' (property %s)\n", site.Name, site.PropertyID)
	return nil
}

func sitesDeleteCmd(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	sites, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer sites.Close()

	if err := sites.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}

	a.log.Info("site deleted", zap.String("site", name))
	fmt.Printf("✅ Deleted site '%s'\n", name)
	return nil
}

func goalsListCmd(cmd *cobra.Command, args []string) error {
	fmt.Println("🎯 Business goals:")
	fmt.Println()

	rows := make([][]string, len(narrative.Goals))
	for i, g := range narrative.Goals {
		rows[i] = []string{g.Key, g.Label}
	}
	for _, line := range render.Table([]string{"key", "goal"}, rows, render.DefaultTableOptions()) {
		fmt.Println(line)
	}

	fmt.Println("\n💡 Use 'ga4insight dashboard --goal <key>' or '--goal-text \"...\"' for your own goal")
	return nil
}
