package main

import (
	"careers-ui-suite/internal/console"
	"careers-ui-suite/internal/usecase"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func getCmdList(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			console.New(out, nil, color.NoColor).PrintScenarios(usecase.Scenarios())

			return nil
		},
	}
}
