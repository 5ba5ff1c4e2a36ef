package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

// Validate returns the validate command.
func Validate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [definition.yaml...]",
		Short: "Check wizard definitions",
		Long: "Check that each definition parses and builds a wizard. With no\n" +
			"arguments the configured definition, or the built-in survey, is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				args = []string{cfg.Definition}
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				def, err := loadDefinition(path)
				if err != nil {
					return err
				}
				name := path
				if name == "" {
					name = "built-in"
				}
				fmt.Fprintf(out, "ok %s: %q, %s\n", name, def.Title, describeSteps(def))
			}
			return nil
		},
	}
}

func describeSteps(def *wizard.Definition) string {
	fields := 0
	for _, s := range def.Steps {
		fields += len(s.Fields)
	}
	return fmt.Sprintf("%d steps, %d fields", len(def.Steps), fields)
}
