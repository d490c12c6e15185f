package usecase

import (
	"careers-ui-suite/internal/config"
	"careers-ui-suite/internal/engine"
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/apperr"
	"careers-ui-suite/pkg/logg"
	"careers-ui-suite/pkg/tracing"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	runnerName   = "Runner"
	runnerTracer = "careers-ui-suite/usecase"

	sessionCloseTimeout = 10 * time.Second
)

type Params struct {
	fx.In

	Config     *config.Config
	Logger     *zap.Logger
	Sessions   ports.SessionFactory
	Metrics    *engine.Metrics       `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Runner executes scenarios, each against its own session, and collects the
// outcome into a RunReport.
type Runner struct {
	sessions ports.SessionFactory
	envs     *envFactory
	config   *config.Config
	logger   *zap.Logger
	tracer   trace.Tracer
	metrics  *scenarioMetrics
}

func NewRunner(params Params) (*Runner, error) {
	envs, err := newEnvFactory(params)
	if err != nil {
		return nil, err
	}

	return &Runner{
		sessions: params.Sessions,
		envs:     envs,
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, runnerName)),
		tracer:   otel.Tracer(runnerTracer),
		metrics:  newScenarioMetrics(params.Registerer),
	}, nil
}

// Run executes scenarios with at most parallel sessions open at once. A
// failing scenario never stops the others; the error return is reserved for
// a cancelled run.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario, parallel int) (report *entity.RunReport, err error) {
	const op = "Runner.Run"

	if parallel < 1 {
		parallel = 1
	}

	report = &entity.RunReport{
		ID:        uuid.New(),
		BaseURL:   r.config.SiteConfig.BaseURL,
		StartedAt: time.Now(),
		Scenarios: make([]entity.ScenarioResult, len(scenarios)),
	}

	logger := r.logger.With(zap.String(logg.Operation, op), zap.String(logg.RunID, report.ID.String()))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.String("run_id", report.ID.String()),
		attribute.Int("scenarios", len(scenarios)),
		attribute.Int("parallel", parallel),
	)
	defer func() { step.End(err) }()

	logger.Info("Starting run", zap.Int("scenarios", len(scenarios)), zap.Int("parallel", parallel))

	var g errgroup.Group
	g.SetLimit(parallel)

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if ctx.Err() != nil {
				report.Scenarios[i] = r.skipped(ctx, logger, sc)
				return nil
			}

			report.Scenarios[i] = r.runScenario(ctx, logger, sc)

			return nil
		})
	}

	_ = g.Wait()

	report.CompletedAt = time.Now()

	passed, failed := report.Counts()
	logger.Info("Run finished",
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Duration(logg.Elapsed, report.CompletedAt.Sub(report.StartedAt)))

	if ctx.Err() != nil {
		return report, apperr.WrapWithReason(op, apperr.CodeCancelled, ctx.Err(), "run_cancelled")
	}

	return report, nil
}

func (r *Runner) runScenario(ctx context.Context, logger *zap.Logger, sc Scenario) entity.ScenarioResult {
	const op = "Runner.runScenario"

	logger = logger.With(zap.String(logg.Scenario, sc.Name))

	result := entity.ScenarioResult{
		Name:      sc.Name,
		StartedAt: time.Now(),
	}

	err := r.execute(ctx, logger, sc, &result)
	result.Duration = time.Since(result.StartedAt)

	// Checks that read false because the run was interrupted are not
	// assertion failures.
	if err != nil && ctx.Err() != nil && !apperr.HasCode(err, apperr.CodeCancelled) {
		err = apperr.Wrap(op, apperr.CodeCancelled, err, map[string]any{
			apperr.MetaReason:   "run_cancelled",
			apperr.MetaScenario: sc.Name,
		})
	}

	r.finish(logger, &result, err)

	return result
}

// skipped records a scenario that was never started because the run was
// cancelled first. No session is opened for it.
func (r *Runner) skipped(ctx context.Context, logger *zap.Logger, sc Scenario) entity.ScenarioResult {
	const op = "Runner.runScenario"

	logger = logger.With(zap.String(logg.Scenario, sc.Name))

	result := entity.ScenarioResult{
		Name:      sc.Name,
		StartedAt: time.Now(),
	}

	r.finish(logger, &result, apperr.Wrap(op, apperr.CodeCancelled, ctx.Err(), map[string]any{
		apperr.MetaReason:   "not_started",
		apperr.MetaScenario: sc.Name,
	}))

	return result
}

func (r *Runner) finish(logger *zap.Logger, result *entity.ScenarioResult, err error) {
	if err != nil {
		result.Status = entity.ScenarioStatusFailed
		result.ErrorKind = engine.ErrorKind(err)
		result.Error = err.Error()

		if loc, ok := apperr.MetaOf(err, apperr.MetaLocator); ok {
			result.Locator = fmt.Sprint(loc)
		}

		logger.Error("Scenario failed",
			zap.String("error_kind", string(result.ErrorKind)),
			zap.String(logg.Locator, result.Locator),
			zap.Error(err))
	} else {
		result.Status = entity.ScenarioStatusPassed
		logger.Info("Scenario passed", zap.Duration(logg.Elapsed, result.Duration))
	}

	r.metrics.record(*result)
}

func (r *Runner) execute(ctx context.Context, logger *zap.Logger, sc Scenario, result *entity.ScenarioResult) (err error) {
	const op = "Runner.execute"

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, sc.Name, attribute.String("scenario", sc.Name))
	defer func() { step.End(err) }()

	session, err := r.sessions.Open(ctx, r.envs.SessionOptions())
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			err = apperr.Wrap(op, apperr.CodeSessionNotReady, err, map[string]any{
				apperr.MetaStage:    apperr.StageSession,
				apperr.MetaScenario: sc.Name,
			})
		}

		return err
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCloseTimeout)
		defer cancel()

		if cerr := session.Close(closeCtx); cerr != nil {
			logger.Warn("Failed to close session", zap.Error(cerr))
		}
	}()

	defer func() {
		if p := recover(); p != nil {
			err = apperr.WrapErrorWithReason(op, apperr.CodeInternal, fmt.Sprintf("scenario panicked: %v", p))
		}
	}()

	env := r.envs.CreateEnv(session, logger, func(ir entity.InteractionResult) {
		result.Interactions = append(result.Interactions, ir)
	})

	return sc.Run(ctx, env)
}
