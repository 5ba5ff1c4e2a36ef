// Package commands defines the stepper CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/golivestepper/internal/config"
	"github.com/gabrielmiguelok/golivestepper/internal/examples"
	"github.com/gabrielmiguelok/golivestepper/internal/reload"
	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

// Root returns the root command.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stepper",
		Short:         "Multi-step form wizard served live or run in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default ./"+config.FileName+" if present)")
	flags.String("definition", "", "wizard definition YAML (default built-in survey)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	cmd.AddCommand(Serve())
	cmd.AddCommand(Prompt())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Version())

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags())
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := []logging.LoggerOption{logging.WithLevel(level), logging.WithOutput(os.Stderr)}
	if cfg.LogFormat == "json" {
		opts = append(opts, logging.WithJSON())
	}
	return logging.NewSlogLogger(opts...), nil
}

// loadDefinition returns the configured definition or the built-in survey.
func loadDefinition(path string) (*wizard.Definition, error) {
	if path == "" {
		return examples.Wealth()
	}
	return reload.Load(path)
}

// demoSubmit logs the submitted values after delay. It stands in for a
// real backend call.
func demoSubmit(logger logging.Logger, delay time.Duration) wizard.SubmitFunc {
	return func(ctx context.Context, values forms.Values, h *wizard.Helpers) error {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}

		fields := make([]logging.Field, 0, len(values))
		for _, k := range values.Keys() {
			fields = append(fields, logging.String(k, values.String(k)))
		}
		logger.Info("wizard submitted", fields...)
		h.SetStatus(fmt.Sprintf("Received %d answers.", len(values)))
		return nil
	}
}
