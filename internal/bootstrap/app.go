package bootstrap

import (
	"careers-ui-suite/internal/browser"
	"careers-ui-suite/internal/config"
	"careers-ui-suite/internal/console"
	"careers-ui-suite/internal/engine"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/internal/usecase"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module is the whole dependency graph of the suite.
var Module = fx.Options(
	fx.Provide(
		config.GetConfig,
		newLogger,
		newRegistry,
		func(r *prometheus.Registry) prometheus.Registerer { return r },
		func(r *prometheus.Registry) prometheus.Gatherer { return r },

		engine.NewMetrics,
		browser.NewLauncher,
		func(l *browser.Launcher) ports.SessionFactory { return l },

		usecase.NewRunner,
		console.NewPrinter,
		newSuite,
	),

	fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
	}),

	fx.Invoke(
		setupTracing,
		registerLauncher,
	),

	fx.StartTimeout(10*time.Second),
	fx.StopTimeout(30*time.Second),
)

// NewApp wires the suite. Callers pull what they need out of the graph with
// fx.Populate passed in extra.
func NewApp(extra ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{Module}, extra...)...)
}

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
