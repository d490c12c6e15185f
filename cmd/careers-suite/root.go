package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "careers-suite",
		Short:        "UI regression suite for the Insider careers flow",
		SilenceUsage: true,
	}

	root.SetOut(out)
	root.AddCommand(
		getCmdRun(),
		getCmdList(out),
		getCmdShow(out),
	)

	return root
}
