package engine

import (
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/wait"
	"careers-ui-suite/pkg/apperr"
	"careers-ui-suite/pkg/logg"
	"careers-ui-suite/pkg/tracing"
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// action walks one engine call through its states and reports the outcome
// exactly once.
type action struct {
	e       *Engine
	kind    entity.ActionType
	target  string
	state   entity.ActionState
	logger  *zap.Logger
	step    *tracing.Span
	started time.Time
}

func (e *Engine) begin(ctx context.Context, op string, kind entity.ActionType, target string, attrs ...attribute.KeyValue) (context.Context, *action) {
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.Locator, target))

	attrs = append(attrs, attribute.String("target", target))
	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op, attrs...)

	return ctx, &action{
		e:       e,
		kind:    kind,
		target:  target,
		state:   entity.ActionStatePending,
		logger:  logger,
		step:    step,
		started: time.Now(),
	}
}

func (a *action) to(state entity.ActionState) {
	a.state = state
	a.step.AddEvent(string(state))
	a.logger.Debug("Action state", zap.String(logg.State, string(state)))
}

func (a *action) polling(cond wait.Condition) {
	a.to(entity.ActionStatePolling)
	a.logger.Debug("Waiting", zap.String(logg.Condition, cond.String()), zap.Stringer("policy", a.e.policy))
}

func (a *action) resolve(ctx context.Context, loc locator.Locator, cond wait.Condition) (wait.Match, error) {
	a.polling(cond)

	m, err := a.e.policy.Resolve(ctx, a.e.session, loc, cond)

	return a.resolved(cond, m, err)
}

func (a *action) resolveQuery(ctx context.Context, q query, cond wait.Condition) (wait.Match, error) {
	a.polling(cond)

	m, err := a.e.policy.ResolveQuery(ctx, q.target, q.run, cond)

	return a.resolved(cond, m, err)
}

func (a *action) resolved(cond wait.Condition, m wait.Match, err error) (wait.Match, error) {
	if err != nil {
		a.e.metrics.recordWait(cond.Kind.String(), time.Since(a.started), err)

		if apperr.HasCode(err, apperr.CodeTimeoutExceeded) {
			a.to(entity.ActionStateTimedOut)
		}

		return wait.Match{}, err
	}

	a.e.metrics.recordWait(cond.Kind.String(), m.Elapsed, nil)
	a.to(entity.ActionStateResolved)

	return m, nil
}

func (a *action) until(ctx context.Context, cond wait.Condition) error {
	a.polling(cond)

	elapsed, err := a.e.policy.Until(ctx, a.e.session, cond)
	a.e.metrics.recordWait(cond.Kind.String(), elapsed, err)

	if err != nil {
		if apperr.HasCode(err, apperr.CodeTimeoutExceeded) {
			a.to(entity.ActionStateTimedOut)
		}

		return err
	}

	a.to(entity.ActionStateResolved)

	return nil
}

func (a *action) actionFailed(op, reason string, err error) error {
	return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
		apperr.MetaReason:  reason,
		apperr.MetaStage:   apperr.StageInteraction,
		apperr.MetaLocator: a.target,
	})
}

func (a *action) finish(err error) {
	if err != nil {
		a.to(entity.ActionStateFailed)
	} else {
		a.to(entity.ActionStateDone)
	}

	a.step.End(err)

	result := entity.InteractionResult{
		Action:    a.kind,
		Locator:   a.target,
		Success:   err == nil,
		ErrorKind: ErrorKind(err),
		State:     a.state,
		Elapsed:   time.Since(a.started),
	}

	a.e.metrics.recordAction(result)

	if a.e.observer != nil {
		a.e.observer(result)
	}
}
