// Command pagetrack inspects extraction recipes and runs instrumented demo
// sessions against the simulated host.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pageanalytics/internal/config"
	"pageanalytics/internal/logging"
	"pageanalytics/internal/recipe"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pagetrack",
	Short: "pagetrack - user-interaction analytics for instrumented UI elements",
	Long: `pagetrack instruments a UI host's element functions so that every click
and value change is logged as one structured JSON record, without touching
the application's own UI code.

Use "recipes" to inspect or validate the extraction recipe table and "demo"
to watch events produced by simulated sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		if verbose {
			logging.UseLogger(logger, cfg.Logging.Settings())
		} else if err := logging.Configure(cfg.Logging.Settings()); err != nil {
			return err
		}
		logging.Get(logging.CategoryCLI).Debug("config loaded from %s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pagetrack version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pagetrack %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pagetrack.yaml", "Config file")

	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesCheckCmd)

	rootCmd.AddCommand(recipesCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRecipes resolves the recipe table: explicit path, then config, then built-in.
func loadRecipes(path string) (*recipe.Table, error) {
	if path == "" && cfg != nil {
		path = cfg.RecipesPath
	}
	if path == "" {
		return recipe.Default(), nil
	}
	return recipe.Load(path)
}
