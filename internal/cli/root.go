// Package cli provides the command-line interface for the pattern scanner.
package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chartscan/internal/config"
	"chartscan/internal/feed"
	"chartscan/internal/logging"
	"chartscan/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
	Feed   feed.Provider
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize SQLite store
	dbPath := cfg.Data.DBPath
	if dbPath == "" {
		dbPath = config.DefaultConfigDir() + "/chartscan.db"
	}
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, caching and history unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Msg("SQLite store initialized")
	}

	// CSV candle source, cached through the store when available
	candleDir := cfg.Data.CandleDir
	if candleDir == "" {
		candleDir = config.DefaultConfigDir() + "/candles"
	}
	csvFeed := feed.NewCSVProvider(candleDir)
	if app.Store != nil {
		maxAge, err := time.ParseDuration(cfg.Data.CacheMaxAge)
		if err != nil || maxAge <= 0 {
			maxAge = 24 * time.Hour
		}
		app.Feed = feed.NewCachedProvider(csvFeed, app.Store, maxAge, logger)
	} else {
		app.Feed = csvFeed
	}

	rootCmd := &cobra.Command{
		Use:   "chartscan",
		Short: "chartscan - chart pattern detection for OHLC candle series",
		Long: `chartscan detects classical chart patterns in OHLC candle data:
double tops and bottoms, head and shoulders, triangles, wedges,
pennants, flags and triple tops and bottoms.

It reports completed patterns with confirmed breakouts, patterns still
forming, confidence scores and post-breakout outcome analysis.

Use 'chartscan help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/chartscan)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("chartscan v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Scan Configuration")
	output.Printf("  Timeframe:        %s\n", cfg.Scan.Timeframe)
	if len(cfg.Scan.Types) == 0 {
		output.Printf("  Types:            all\n")
	} else {
		output.Printf("  Types:            %v\n", cfg.Scan.Types)
	}
	output.Printf("  Include Forming:  %v\n", cfg.Scan.IncludeForming)
	output.Printf("  Include Invalid:  %v\n", cfg.Scan.IncludeInvalid)
	output.Printf("  Min Completion:   %.2f\n", cfg.Scan.MinCompletion)
	output.Printf("  Relevance Days:   %d\n", cfg.Scan.CurrentRelevanceDays)
	output.Println()

	output.Bold("Data Configuration")
	output.Printf("  Candle Dir:       %s\n", cfg.Data.CandleDir)
	output.Printf("  Database:         %s\n", cfg.Data.DBPath)
	output.Printf("  Cache Max Age:    %s\n", cfg.Data.CacheMaxAge)
	output.Println()

	output.Bold("UI")
	output.Printf("  Color:            %v\n", cfg.UI.ColorEnabled)
	output.Printf("  Date Format:      %s\n", cfg.UI.DateFormat)

	return nil
}
