package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/c360studio/semtrace/framework"
	"github.com/c360studio/semtrace/metrics"
	"github.com/c360studio/semtrace/watch"
)

var (
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	standardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func validateCmd(flags *globalFlags) *cobra.Command {
	var blocking bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate traceability across the documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := 0
			fw, _, err := loadFramework(cmd, flags, framework.WithExitFunc(func(code int) {
				status = code
			}))
			if err != nil {
				return err
			}

			if _, err := fw.ValidateAll(blocking); err != nil {
				return err
			}
			if status != 0 {
				return &exitError{code: status}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&blocking, "blocking", false, "Exit non-zero when errors are found")
	return cmd
}

func generateCmd(flags *globalFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate <generator>",
		Short: "Generate a module from a configured generator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, logger, err := loadFramework(cmd, flags)
			if err != nil {
				return err
			}

			code, err := fw.GenerateModule(args[0])
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(code), 0644); err != nil {
					return fmt.Errorf("write generated module: %w", err)
				}
				logger.Info("Wrote generated module", slog.String("path", outPath))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Also write the generated module to this file")
	return cmd
}

func listGeneratorsCmd(flags *globalFlags) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list-generators",
		Short: "List configured generators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, _, err := loadFramework(cmd, flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			names := fw.AvailableGenerators()
			if len(names) == 0 {
				fmt.Fprintln(out, "No generators configured")
				return nil
			}

			fmt.Fprintln(out, "Available generators:")
			for _, name := range names {
				if !verbose {
					fmt.Fprintf(out, "  %s\n", name)
					continue
				}
				gen, _ := fw.Config().CodeGenerators.Get(name)
				badge := standardStyle.Render("STANDARD")
				if gen.SafetyCritical {
					badge = criticalStyle.Render("SAFETY-CRITICAL")
				}
				fmt.Fprintf(out, "  %s [%s] template=%s\n", nameStyle.Render(name), badge, gen.Template)
				if gen.Description != "" {
					fmt.Fprintf(out, "      %s\n", gen.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show template, description and safety classification")
	return cmd
}

func watchCmd(flags *globalFlags) *cobra.Command {
	var (
		metricsAddr string
		debounce    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate whenever documentation changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recorder := metrics.NewRecorder()
			fw, logger, err := loadFramework(cmd, flags, framework.WithMetrics(recorder))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if _, err := fw.ValidateAll(false); err != nil {
				return err
			}

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, recorder, logger)
				defer stop()
			}

			w, err := watch.New(watch.Config{
				DebounceDelay: debounce,
				Pattern:       fw.Config().Documentation.Pattern,
			}, fw.DocsRoot(), logger)
			if err != nil {
				return err
			}

			return w.Run(ctx, func(ctx context.Context, changed []string) {
				logger.Info("Documentation changed", slog.Any("files", changed))
				if _, err := fw.ValidateAll(false); err != nil {
					logger.Error("Validation failed", slog.String("error", err.Error()))
				}
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounceDelay, "Wait this long for further changes before re-validating")
	return cmd
}

// serveMetrics exposes the recorder on addr/metrics and returns a function
// that shuts the server down.
func serveMetrics(addr string, recorder *metrics.Recorder, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown", slog.String("error", err.Error()))
		}
	}
}
