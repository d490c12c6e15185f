package bootstrap

import (
	"careers-ui-suite/internal/config"
	"careers-ui-suite/internal/console"
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/usecase"
	"careers-ui-suite/pkg/logg"
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RunOptions struct {
	Scenarios   []string
	Parallel    int
	ReportPath  string
	MetricsPath string
}

// Suite is the entry point the CLI drives: run the selected scenarios, print
// the outcome and export the report files.
type Suite struct {
	config   *config.Config
	logger   *zap.Logger
	runner   *usecase.Runner
	printer  *console.Printer
	gatherer prometheus.Gatherer
}

type suiteParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Runner   *usecase.Runner
	Printer  *console.Printer
	Gatherer prometheus.Gatherer
}

func newSuite(params suiteParams) *Suite {
	return &Suite{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Suite")),
		runner:   params.Runner,
		printer:  params.Printer,
		gatherer: params.Gatherer,
	}
}

func (s *Suite) Config() *config.Config {
	return s.config
}

func (s *Suite) Run(ctx context.Context, opts RunOptions) (*entity.RunReport, error) {
	scenarios, err := usecase.Lookup(opts.Scenarios...)
	if err != nil {
		return nil, err
	}

	report, runErr := s.runner.Run(ctx, scenarios, opts.Parallel)
	if report == nil {
		return nil, runErr
	}

	s.printer.PrintReport(report)

	if opts.ReportPath != "" {
		if err := usecase.WriteReport(opts.ReportPath, report); err != nil {
			s.logger.Error("Failed to write report", zap.Error(err))
		} else {
			s.logger.Info("Report written", zap.String("path", opts.ReportPath))
		}
	}

	if opts.MetricsPath != "" {
		if err := usecase.WriteMetrics(opts.MetricsPath, s.gatherer); err != nil {
			s.logger.Error("Failed to write metrics", zap.Error(err))
		} else {
			s.logger.Info("Metrics written", zap.String("path", opts.MetricsPath))
		}
	}

	return report, runErr
}
