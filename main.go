package main

import (
	"fmt"
	"io"
	"os"

	"discharge_backend/core"
	"discharge_backend/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultLogFile is used when LOG_FILE is unset.
const defaultLogFile = "discharge.log"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
	}

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return core.ExitCodeFor(err)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "discharge",
		Short:         "Discharge summary extraction service",
		Long:          "Extracts a structured record from a discharge-summary PDF with an LLM, lets a reviewer correct it and renders the final document from a template.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), core.GetVersionInfo())
			return err
		},
	}
}

// newLogger builds the process logger from DEV_MODE, LOG_LEVEL and
// LOG_FILE. Log lines go to w so that command output on stdout stays
// machine-readable.
func newLogger(w io.Writer) (*logging.Logger, error) {
	opts := logging.Options{
		Development: core.ParseBoolEnv("DEV_MODE", false),
		FilePath:    core.GetEnvOrDefault("LOG_FILE", defaultLogFile),
		Console:     zapcore.AddSync(w),
	}
	if os.Getenv("LOG_LEVEL") != "" {
		level := logging.ParseLogLevel("LOG_LEVEL", zapcore.InfoLevel)
		opts.Level = &level
	}
	return logging.New(opts)
}

// loadConfig loads the configuration and logs the values that shape a run.
func loadConfig(logger *logging.Logger) (*core.Config, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("endpoint", cfg.LLMEndpoint()),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("retry_delay", cfg.RetryDelay),
		zap.Duration("request_timeout", cfg.RequestTimeout),
		zap.String("template", cfg.TemplatePath),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Bool("allow_self_signed_certs", cfg.AllowSelfSignedCerts),
		zap.Bool("dev_mode", logger.IsDevelopment()),
	)
	return cfg, nil
}
