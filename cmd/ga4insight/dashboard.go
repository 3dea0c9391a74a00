package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ga4insight/internal/dashboard"
	"ga4insight/internal/narrative"
	"ga4insight/internal/render"
	"ga4insight/internal/results"
)

func dashboardCmdHandler(cmd *cobra.Command, args []string) error {
	siteName, _ := cmd.Flags().GetString("site")
	goalKey, _ := cmd.Flags().GetString("goal")
	goalText, _ := cmd.Flags().GetString("goal-text")
	noNarrative, _ := cmd.Flags().GetBool("no-narrative")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	exportPath, _ := cmd.Flags().GetString("export")
	formatName, _ := cmd.Flags().GetString("format")
	prettify, _ := cmd.Flags().GetBool("prettify")

	var format results.ExportFormat
	if exportPath != "" {
		if formatName == "" {
			formatName = strings.TrimPrefix(filepath.Ext(exportPath), ".")
		}
		f, ok := results.ParseFormat(formatName)
		if !ok {
			return fmt.Errorf("unsupported export format %q (json, csv, tsv, xlsx)", formatName)
		}
		format = f
	}

	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	if goalKey == "" {
		goalKey = a.cfg.Narrative.DefaultGoal
	}
	goal, err := narrative.ResolveGoal(goalKey, goalText)
	if err != nil && !noNarrative {
		return withHint(err, "Run 'ga4insight goals list' for the preset goals")
	}

	opts := []dashboard.Option{dashboard.WithLogger(a.log)}
	if !noNarrative {
		rec, err := a.recommender()
		if err != nil {
			return withHint(err, "Set the key in the environment or .env, or pass --no-narrative")
		}
		opts = append(opts, dashboard.WithRecommender(rec))
	}

	ctx, cancel := commandContext(3 * time.Minute)
	defer cancel()

	sites, err := a.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer sites.Close()

	client := a.dataClient(noCache)
	defer client.Close()

	fmt.Fprintln(os.Stderr, "📡 Fetching GA4 reports...")

	svc := dashboard.NewService(sites, client, opts...)
	d, err := svc.Generate(ctx, dashboard.Request{
		SiteName:      siteName,
		Goal:          goal,
		SkipNarrative: noNarrative,
	})
	if err != nil {
		if errors.Is(err, dashboard.ErrSiteRequired) || errors.Is(err, dashboard.ErrNoSites) {
			return withHint(err, "Use 'ga4insight sites list' and pass --site <name>")
		}
		return fmt.Errorf("dashboard generation failed: %w", err)
	}

	render.Dashboard(cmd.OutOrStdout(), d, render.Options{SignedDurationDelta: a.cfg.Report.SignedDurationDelta})

	if exportPath == "" {
		return nil
	}

	path, err := results.Export(d, results.ExportOptions{
		Format:              format,
		OutputPath:          exportPath,
		Prettify:            prettify,
		SignedDurationDelta: a.cfg.Report.SignedDurationDelta,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n💾 Exported to %s\n", path)
	return nil
}
