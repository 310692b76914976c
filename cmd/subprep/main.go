package main

import (
	"fmt"
	"os"
	"time"

	"subprep/internal/app"
	"subprep/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Filter", "ExportDB").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "subprep",
	Short: "Subtitle corpus preparation tool",
	Long: `subprep prepares OpenSubtitles XML dumps for database loading:
extract downloaded archives, filter out unmatched bilingual document
pairs, and export the surviving documents into SQLite.`,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:      %s\n", cfg.HostID)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Corpus Root:  %s\n", cfg.Corpus.Root)
		fmt.Printf("Manifest:     %s\n", cfg.Corpus.ManifestPath)
		fmt.Printf("Languages:    %s -> %s\n", cfg.Corpus.SourceLang, cfg.Corpus.TargetLang)
		return nil
	},
}

// filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Remove unmatched bilingual document pairs",
	Long: `filter reads the alignment manifest, copies exactly the referenced
documents from both language subtrees into a staging tree, reports
before/after sizes and counts, then promotes the staging tree over the
originals. Any error before promotion leaves the corpus untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Filter")
		if err != nil {
			return err
		}
		defer a.Close()

		var opts app.FilterOptions
		opts.CorpusRoot, _ = cmd.Flags().GetString("corpus")
		opts.ManifestPath, _ = cmd.Flags().GetString("manifest")
		opts.SourceLang, _ = cmd.Flags().GetString("source-lang")
		opts.TargetLang, _ = cmd.Flags().GetString("target-lang")
		opts.KeepStaging, _ = cmd.Flags().GetBool("keep-staging")

		result, err := a.Filter(opts)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}

		fmt.Printf("Parsed %d alignment(s), staged %d document(s)\n\n", result.Entries, result.Copied)
		for _, rep := range result.Reports {
			fmt.Printf("%-8s before: %5d file(s) %9s   after: %5d file(s) %9s\n",
				rep.Lang,
				rep.Before.Files, rep.Before.HumanBytes(),
				rep.After.Files, rep.After.HumanBytes(),
			)
		}
		return nil
	},
}

// extract command
var extractCmd = &cobra.Command{
	Use:   "extract SRC_DIR [OUT_DIR]",
	Short: "Extract downloaded corpus archives",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Extract")
		if err != nil {
			return err
		}
		defer a.Close()

		outDir := "."
		if len(args) > 1 {
			outDir = args[1]
		}

		count, err := a.Extract(args[0], outDir)
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}

		fmt.Printf("Extracted %d archive(s)\n", count)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export extracted documents",
}

var exportDBCmd = &cobra.Command{
	Use:   "db LANG SRC_DIR",
	Short: "Load documents into the database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExportDB")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.ExportDB(args[0], args[1])
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		fmt.Printf("Exported %d document(s)\n", count)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-10s  %s  %-8s  %s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
				r.Parameters,
			)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	filterCmd.Flags().String("corpus", "", "Corpus root (parent of xml/)")
	filterCmd.Flags().String("manifest", "", "Alignment manifest path")
	filterCmd.Flags().String("source-lang", "", "Source language subtree")
	filterCmd.Flags().String("target-lang", "", "Target language subtree")
	filterCmd.Flags().Bool("keep-staging", false, "Keep the staging tree when the run aborts")

	exportCmd.AddCommand(exportDBCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
}
