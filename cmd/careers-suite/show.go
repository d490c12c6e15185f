package main

import (
	"careers-ui-suite/internal/console"
	"careers-ui-suite/internal/usecase"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func getCmdShow(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show <report.yaml>",
		Short: "Print a saved run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			report, err := usecase.ReadReport(args[0])
			if err != nil {
				return err
			}

			console.New(out, nil, color.NoColor).PrintReport(report)

			return nil
		},
	}
}
