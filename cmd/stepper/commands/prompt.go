package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/golivestepper/internal/prompt"
)

// Prompt returns the prompt command.
func Prompt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Run the wizard in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			def, err := loadDefinition(cfg.Definition)
			if err != nil {
				return err
			}
			accessible, err := cmd.Flags().GetBool("accessible")
			if err != nil {
				return err
			}

			runner, err := prompt.New(def, demoSubmit(logger, cfg.SubmitDelay),
				prompt.WithAsker(&prompt.HuhAsker{Accessible: accessible}),
				prompt.WithOutput(cmd.OutOrStdout()),
				prompt.WithLogger(logger),
				prompt.WithSubmitTimeout(cfg.SubmitTimeout),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if _, err := runner.Run(ctx); err != nil {
				if errors.Is(err, prompt.ErrAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().Bool("accessible", os.Getenv("ACCESSIBLE") != "", "plain prompts for screen readers")
	cmd.Flags().Duration("submit-delay", 0, "simulated submit latency")
	return cmd
}
