package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kisandoctor/internal/config"
	"kisandoctor/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	language   string
	noCache    bool

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kisan",
	Short: "Kisan Plant Doctor - crop disease diagnosis for farmers",
	Long: `Kisan Plant Doctor diagnoses crop diseases from a leaf photo and answers
farming questions in the farmer's language.

Every diagnosis is cross-checked against a local knowledge base: missing
explanations or treatments are filled from verified advice, and prevention
tips are never left empty.

Architecture: Input → Cache → Local Intent → Model → Ground-Truth Repair → Response

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runChat,
}

func interactive(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == chatCmd
}

func init() {
	// Assigned here rather than in the literal: the hook calls interactive,
	// which refers back to rootCmd.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.Store.DatabasePath = dbPath
		}
		if language != "" {
			loaded.Session.Language = language
		}
		if noCache {
			loaded.Cache.Enabled = false
		}
		cfg = loaded

		logCfg := cfg.Logging.ToLogging()
		if verbose {
			logCfg.Level = "debug"
		}
		// The chat view owns the terminal; its logs go to a file next to the database.
		if interactive(cmd) && logCfg.File == "" {
			logCfg.File = filepath.Join(filepath.Dir(cfg.Store.DatabasePath), "kisan.log")
			if err := os.MkdirAll(filepath.Dir(logCfg.File), 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		if err := logging.Initialize(logCfg); err != nil {
			return err
		}
		logger = logging.Base()
		logging.Boot("%s %s starting (%s)", cfg.Name, cfg.Version, cmd.CommandPath())
		return nil
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "", "Reply language code or name (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Disable the response cache")

	rootCmd.AddCommand(
		chatCmd,
		diagnoseCmd,
		weatherCmd,
		historyCmd,
		reportsCmd,
		usersCmd,
		registerCmd,
		loginCmd,
		exportCmd,
		languagesCmd,
		tracesCmd,
		statsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
