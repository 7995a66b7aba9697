package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"biotriage/adapters/excel"
	"biotriage/adapters/llm"
	"biotriage/adapters/markdown"
	"biotriage/adapters/postgres"
	"biotriage/app"
	"biotriage/domain/pair"
	"biotriage/domain/scoring"
	"biotriage/internal/config"
	"biotriage/ports"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "biotriage",
		Short: "Biomarker gene-pair triage: validate, score, and classify meta-analysis results",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newDumpProfilesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		inputFile  string
		outputFile string
		configFile string
		profile    string
		flaggedDir string
		disableAPI bool
		dryRun     bool
		renderHTML bool
		workers    int
		persist    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the biomarker triage pipeline",
		Long: `Execute the full triage pipeline: read gene-pair rows, validate and
score them, classify into Green/Amber/Red tiers, and write the workbook
report plus flagged rationale documents.

Example: biotriage run --input pairs.csv --profile conservative --disable-api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(profile, configFile)
			if err != nil {
				return err
			}
			if outputFile != "" {
				cfg.Paths.OutputFile = outputFile
			}
			if flaggedDir != "" {
				cfg.Paths.FlaggedDir = flaggedDir
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			var client ports.CompletionClient
			if cfg.API.Enabled && !disableAPI && !dryRun {
				c, err := llm.NewClient(llm.Config{
					APIKey:        cfg.API.APIKey,
					BaseURL:       cfg.API.BaseURL,
					Model:         cfg.API.Model,
					SystemContext: cfg.API.SystemContext,
					Timeout:       cfg.API.Timeout,
					RetryAttempts: cfg.API.RetryAttempts,
				})
				if err != nil {
					return err
				}
				client = c
			}

			var repository ports.RunRepository
			if persist {
				dsn := os.Getenv("DATABASE_URL")
				if dsn == "" {
					return fmt.Errorf("--store requires DATABASE_URL")
				}
				db, err := sqlx.Connect("postgres", dsn)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer db.Close()
				repository = postgres.NewRunRepository(db)
			}

			triage := app.NewTriageService(client, app.TriageOptions{
				Workers:     cfg.Workers,
				MaxTokens:   cfg.API.MaxTokens,
				Temperature: cfg.API.Temperature,
			})
			pipeline := app.NewPipelineService(
				triage,
				excel.NewDataReader(inputFile),
				excel.NewReportWriter(cfg.Paths.OutputFile),
				markdown.NewRationaleWriter(cfg.Paths.FlaggedDir, renderHTML),
				repository,
			)

			metadata := map[string]string{
				"input_file":  inputFile,
				"output_file": cfg.Paths.OutputFile,
				"config_file": orDefault(configFile, "<default>"),
				"disable_api": fmt.Sprintf("%t", disableAPI || dryRun),
			}

			result, err := pipeline.Run(cmd.Context(), cfg.Scoring, metadata)
			if err != nil {
				return err
			}
			printSummary(cmd, result.Summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV or XLSX containing biomarker pairs (required)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Destination Excel file (default output/analysis.xlsx)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Optional YAML configuration override file")
	cmd.Flags().StringVarP(&profile, "profile", "p", "balanced", "Scoring profile (balanced, conservative, aggressive, dual)")
	cmd.Flags().StringVar(&flaggedDir, "flagged-dir", "", "Directory for flagged rationale documents (default output/rationales)")
	cmd.Flags().BoolVar(&disableAPI, "disable-api", false, "Disable live AI calls even if credentials are available")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Skip AI rationales and only run validation/scoring")
	cmd.Flags().BoolVar(&renderHTML, "html", false, "Also render flagged rationales as HTML")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent row workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&persist, "store", false, "Persist the run to Postgres (requires DATABASE_URL)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newDumpProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-profiles [destination]",
		Short: "Dump built-in scoring profiles for reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			destination := "config_profiles"
			if len(args) > 0 {
				destination = args[0]
			}
			if err := os.MkdirAll(destination, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", destination, err)
			}
			for _, name := range scoring.ProfileNames() {
				cfg, err := scoring.ProfileByName(name)
				if err != nil {
					return err
				}
				raw, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal profile %s: %w", name, err)
				}
				path := filepath.Join(destination, name+".yaml")
				if err := os.WriteFile(path, raw, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
			}
			cmd.Printf("Profiles written to %s\n", destination)
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, summary pair.RunSummary) {
	cmd.Printf("Run %s complete: %d pairs (%d scored, %d quarantined)\n",
		summary.RunID, summary.Total, summary.Scored, summary.Quarantined)
	cmd.Printf("  Green: %d  Amber: %d  Red: %d\n",
		summary.TierCounts[pair.TierGreen],
		summary.TierCounts[pair.TierAmber],
		summary.TierCounts[pair.TierRed])
	if summary.Scored > 0 {
		cmd.Printf("  Final score mean %.2f, median %.2f\n", summary.MeanFinalScore, summary.MedianFinalScore)
	}
	if summary.FallbackRationales > 0 {
		cmd.Printf("  %d rationales used the deterministic fallback narrative\n", summary.FallbackRationales)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
