package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flynn-ai/jarvis/internal/config"
	"github.com/flynn-ai/jarvis/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "jarvis",
	Short: "Conversational orchestrator for specialist agents",
	Long: `jarvis - classifies commands, searches the knowledge base and
delegates complex tasks to specialist agents (rings).

Configuration is read from ~/.jarvis/config.toml (override with --config)
and environment variables such as ANTHROPIC_API_KEY, OPENAI_API_KEY,
JARVIS_USER_NAME and ARCHON_MCP_URL.

Examples:
  # Write a default configuration
  jarvis config init

  # Run the brain and the voice front-end
  jarvis serve
  jarvis voice

  # One-shot command, locally or against a running brain
  jarvis ask "design an authentication system"
  jarvis ask --url http://localhost:8055 "hello"

  # Index a document for the sqlite knowledge provider
  jarvis knowledge add docs/architecture.md`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration named by --config. A missing file
// yields defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the process logger. One-shot commands log warnings
// only unless --verbose is set.
func newLogger(cfg *config.Config, service bool) zerolog.Logger {
	lc := cfg.Logging
	if verbose {
		lc.Level = "debug"
	} else if !service {
		lc.Level = "warn"
	}
	return logging.NewWithWriter(lc, os.Stderr)
}
