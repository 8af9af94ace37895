package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mfenwick/oncall-roster/internal/api"
	"github.com/mfenwick/oncall-roster/internal/config"
	"github.com/mfenwick/oncall-roster/pkg/clients/sheetsclient"
	"github.com/mfenwick/oncall-roster/pkg/core/engine"
	"github.com/mfenwick/oncall-roster/pkg/core/services"
	"github.com/mfenwick/oncall-roster/pkg/export"
	"github.com/mfenwick/oncall-roster/pkg/history"
	"github.com/mfenwick/oncall-roster/pkg/postgres"
	"github.com/mfenwick/oncall-roster/pkg/roster"
	"github.com/mfenwick/oncall-roster/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg    *config.Config
	store  history.Store
	logger *zap.Logger
	ctx    context.Context

	pg *postgres.DB
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oncall",
		Short: "On-call roster generator - build monthly tier2/tier3/upgrade schedules",
		Long:  `A CLI tool for generating monthly on-call rosters across support tiers, honoring PTO, rotation fairness, and coverage fallbacks.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.pg != nil {
					app.pg.Close()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and the history store
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// .env is optional; it typically carries DATABASE_URL
	godotenv.Load()

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.logger.Info("Loading configuration")
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.store, err = initHistoryStore()
	if err != nil {
		return fmt.Errorf("failed to initialize history store: %w", err)
	}

	return nil
}

func initHistoryStore() (history.Store, error) {
	switch app.cfg.HistoryBackend {
	case config.HistoryBackendPostgres:
		connString := app.cfg.DatabaseURL
		if connString == "" {
			connString = os.Getenv("DATABASE_URL")
		}
		app.logger.Info("Connecting to postgres history store")
		pg, err := postgres.NewDB(app.ctx, connString)
		if err != nil {
			return nil, err
		}
		if err := pg.RunMigrations(app.ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		app.pg = pg
		return pg, nil
	default:
		app.logger.Info("Using file history store", zap.String("path", app.cfg.HistoryFile))
		return history.NewFileStore(app.cfg.HistoryFile), nil
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <MM/YYYY>",
		Short: "Generate the on-call schedule for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := roster.ParseMonth(args[0])
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			csvPath, _ := cmd.Flags().GetString("csv")
			opts := services.GenerateOptions{Year: year, Month: month, DryRun: dryRun}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				opts.Seed = &seed
			}

			result, err := services.GenerateSchedule(app.ctx, app.store, app.cfg, app.logger, opts)
			if err != nil {
				return err
			}

			printResult(result)

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("failed to create csv file: %w", err)
				}
				defer f.Close()
				if err := export.WriteCSV(f, result); err != nil {
					return err
				}
				fmt.Printf("\nSchedule exported to %s\n", csvPath)
			}

			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Seed for random decisions (omit for deterministic roster order)")
	cmd.Flags().Bool("dry-run", false, "Run without committing cumulative history")
	cmd.Flags().String("csv", "", "Write the schedule to a CSV file")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <MM/YYYY>",
		Short: "Generate a month without committing and print only the audit report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := roster.ParseMonth(args[0])
			if err != nil {
				return err
			}

			result, err := services.GenerateSchedule(app.ctx, app.store, app.cfg, app.logger,
				services.GenerateOptions{Year: year, Month: month, DryRun: true})
			if err != nil {
				return err
			}

			printReport(result)
			return nil
		},
	}
}

func publishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <MM/YYYY>",
		Short: "Generate a month and publish it to Google Sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := roster.ParseMonth(args[0])
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			app.logger.Info("Loading OAuth client configuration")
			oauthCfg, err := config.LoadOAuthClientWithEnv(env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			sheetsClient, err := sheetsclient.NewClient(app.ctx, oauthCfg)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			result, err := services.PublishSchedule(app.ctx, app.store, sheetsClient, app.cfg, app.logger,
				services.GenerateOptions{Year: year, Month: month, DryRun: dryRun})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Schedule published for %s %d (run %s)\n", result.Month, result.Year, result.RunID)
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Publish without committing cumulative history")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for roster upload, PTO entry, and generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			server := api.NewServer(app.store, app.logger)
			return server.Run(addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}

func printResult(result *engine.Result) {
	fmt.Printf("\n✓ Schedule generated for %s %d\n\n", result.Month, result.Year)

	for _, row := range export.ScheduleRows(result) {
		fmt.Printf("  %-12s %-10s %-8s %-8s %-20s %s", row[0], row[1], row[2], row[3], row[4], row[5])
		if row[6] != "" {
			fmt.Printf(" (%s)", row[6])
		}
		fmt.Println()
	}

	printReport(result)
}

func printReport(result *engine.Result) {
	report := result.Report

	if len(report.Critical) == 0 && len(report.Warning) == 0 && len(report.Info) == 0 {
		fmt.Println("\nValidation: clean, no findings.")
		return
	}

	if len(report.Critical) > 0 {
		fmt.Printf("\nCritical findings (%d):\n", len(report.Critical))
		for _, finding := range report.Critical {
			fmt.Printf("  ✗ %s\n", finding)
		}
	}
	if len(report.Warning) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(report.Warning))
		for _, finding := range report.Warning {
			fmt.Printf("  ⚠ %s\n", finding)
		}
	}
	if len(report.Info) > 0 {
		fmt.Printf("\nInformational (%d):\n", len(report.Info))
		for _, finding := range report.Info {
			fmt.Printf("  - %s\n", finding)
		}
	}
}
