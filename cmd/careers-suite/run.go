package main

import (
	"careers-ui-suite/internal/bootstrap"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var errScenariosFailed = errors.New("one or more scenarios failed")

type runCmd struct {
	parallel    int
	reportPath  string
	metricsPath string
}

func (c *runCmd) run(cmd *cobra.Command, args []string) (err error) {
	var suite *bootstrap.Suite

	app := bootstrap.NewApp(fx.Populate(&suite))
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		return err
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	opts := bootstrap.RunOptions{
		Scenarios:   args,
		Parallel:    c.parallel,
		ReportPath:  suite.Config().ReportConfig.Path,
		MetricsPath: suite.Config().ReportConfig.MetricsPath,
	}

	if cmd.Flags().Changed("report") {
		opts.ReportPath = c.reportPath
	}

	if cmd.Flags().Changed("metrics") {
		opts.MetricsPath = c.metricsPath
	}

	report, err := suite.Run(ctx, opts)
	if err != nil {
		return err
	}

	if !report.Passed() {
		return errScenariosFailed
	}

	return nil
}

func getCmdRun() *cobra.Command {
	c := &runCmd{}

	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scenarios against the live site",
		Long: fmt.Sprintf(`Run the named scenarios, or all of them when none are given.

Each scenario gets its own browser session. Configuration comes from the
environment (and an optional .env file); see %q for the scenario names.`, "careers-suite list"),
		RunE: c.run,
	}

	cmd.Flags().IntVarP(&c.parallel, "parallel", "p", 1, "number of scenarios to run at the same time")
	cmd.Flags().StringVar(&c.reportPath, "report", "", "write the run report as YAML to this path (overrides REPORT_PATH)")
	cmd.Flags().StringVar(&c.metricsPath, "metrics", "", "write Prometheus metrics in textfile format to this path (overrides METRICS_PATH)")

	return cmd
}
