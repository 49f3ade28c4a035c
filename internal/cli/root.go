package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dshills/coreview/internal/config"
	"github.com/dshills/coreview/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Global flags
var (
	flagProvider  string
	flagModel     string
	flagServerURL string
	flagSession   string
	flagLogLevel  string
	flagLogFormat string
	flagLogFile   string
	flagNoCache   bool
)

var (
	cfg    = config.Default()
	cfgErr error
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "coreview",
	Short: "Collaborative AI code review",
	Long: "coreview reviews, fixes, optimizes and explains code with an LLM provider, " +
		"and lets several people edit the same buffer in a shared room.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		if exitCode == ExitSuccess {
			return ExitUsageError
		}
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// fail records code and returns err for cobra to print.
func fail(code int, err error) error {
	exitCode = code
	return err
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagServerURL != "" {
		m["serverUrl"] = flagServerURL
	}
	if flagSession != "" {
		m["session"] = flagSession
	}
	if flagLogLevel != "" {
		m["logLevel"] = flagLogLevel
	}
	if flagLogFormat != "" {
		m["logFormat"] = flagLogFormat
	}
	if flagLogFile != "" {
		m["logFile"] = flagLogFile
	}
	if flagNoCache {
		m["noCache"] = strconv.FormatBool(true)
	}
	return m
}

// setup loads the configuration and builds the logger. A broken config file
// is remembered in cfgErr so config subcommands can still repair it.
func setup(cmd *cobra.Command) error {
	c, err := config.Load(buildOverrides())
	if err != nil {
		cfgErr = err
		c = config.Default()
	} else {
		cfgErr = nil
	}
	cfg = c

	logOpts := logging.Options{Level: c.Log.Level, Format: c.Log.Format, File: c.Log.File}
	if cmd == editCmd && logOpts.File == "" {
		// The editor owns the terminal.
		logOpts.File = filepath.Join(os.TempDir(), "coreview", "editor.log")
		if err := os.MkdirAll(filepath.Dir(logOpts.File), 0o755); err != nil {
			return fail(ExitRuntimeError, err)
		}
	}
	l, err := logging.New(logOpts)
	if err != nil {
		return fail(ExitUsageError, err)
	}
	logger = l
	return nil
}

// loadedConfig returns the configuration, or the load error.
func loadedConfig() (config.Config, error) {
	if cfgErr != nil {
		return cfg, fail(ExitUsageError, cfgErr)
	}
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print coreview version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coreview version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProvider, "provider", "", "LLM provider (gemini, anthropic, openai, ollama)")
	pf.StringVar(&flagModel, "model", "", "Model name")
	pf.StringVar(&flagServerURL, "server-url", "", "coreview server URL for rooms and remote reviews")
	pf.StringVar(&flagSession, "session", "", "Session name for history storage")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (auto, json, console)")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to a file")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Disable the review cache")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(roomCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}
