// Package main provides the semtrace binary entry point.
// Semtrace validates traceability identifiers across project documentation
// and generates implementation scaffolds from configured generators.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/semtrace/config"
	"github.com/c360studio/semtrace/framework"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semtrace"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

// exitError carries the status requested by a blocking validation run.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("validation failed with exit status %d", e.code)
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	docsRoot   string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Traceability validation and scaffold generation",
		Long: `Semtrace checks the traceability identifiers (e.g. T1-REQ-001) used across
a project's documentation and generates implementation scaffolds that cite them.

It provides:
- Duplicate identifier and missing document checks
- Code generation from configured generators and templates
- A watch mode that re-validates when documents change

Without --config the project configuration is discovered from the working
directory upward (semtrace.json, semtrace.yaml, tools/project-config.json).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Project config file path (JSON or YAML)")
	cmd.PersistentFlags().StringVar(&flags.docsRoot, "docs", "", "Documentation root (overrides the config)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		validateCmd(flags),
		generateCmd(flags),
		listGeneratorsCmd(flags),
		watchCmd(flags),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadFramework resolves the project configuration and builds a Framework
// writing to the command's output.
func loadFramework(cmd *cobra.Command, flags *globalFlags, opts ...framework.Option) (*framework.Framework, *slog.Logger, error) {
	logger := newLogger(cmd.ErrOrStderr(), flags.logLevel)
	slog.SetDefault(logger)

	path, err := config.NewLoader(logger).Find(flags.configPath)
	if err != nil {
		return nil, nil, err
	}

	base := []framework.Option{
		framework.WithLogger(logger),
		framework.WithOutput(cmd.OutOrStdout()),
		framework.WithDocsRoot(flags.docsRoot),
	}
	fw, err := framework.New(path, append(base, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return fw, logger, nil
}
