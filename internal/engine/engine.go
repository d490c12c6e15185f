// Package engine drives one browser session through locator-based actions.
// Every action re-resolves its locator through a wait.Policy before acting;
// element handles never outlive the call that resolved them.
package engine

import (
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/internal/wait"
	"careers-ui-suite/pkg/apperr"
	"careers-ui-suite/pkg/logg"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	engineName   = "InteractionEngine"
	engineTracer = "engine.interaction"
)

var _ ports.Interactor = (*Engine)(nil)

// Engine is bound to a single session and must be used from one goroutine.
type Engine struct {
	session  ports.Session
	policy   wait.Policy
	logger   *zap.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	observer ports.ResultObserver
}

type Params struct {
	Session  ports.Session
	Policy   wait.Policy
	Logger   *zap.Logger
	Metrics  *Metrics
	Observer ports.ResultObserver
}

func New(params Params) *Engine {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		session:  params.Session,
		policy:   params.Policy,
		logger:   logger.With(zap.String(logg.Layer, engineName)),
		tracer:   otel.Tracer(engineTracer),
		metrics:  params.Metrics,
		observer: params.Observer,
	}
}

// With returns an engine over the same session that waits with policy.
func (e *Engine) With(policy wait.Policy) *Engine {
	clone := *e
	clone.policy = policy

	return &clone
}

func (e *Engine) Policy() wait.Policy { return e.policy }

func (e *Engine) CurrentURL() string {
	return e.session.CurrentURL()
}

func (e *Engine) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"

	ctx, a := e.begin(ctx, op, entity.ActionTypeNavigate, url, attribute.String("url", url))
	defer func() { a.finish(err) }()

	if strings.TrimSpace(url) == "" {
		return apperr.InvalidReqError(op, "url", errors.New("url is empty"))
	}

	a.to(entity.ActionStateActing)

	if err := e.session.Navigate(ctx, url); err != nil {
		return apperr.Wrap(op, apperr.CodeNavigationFailed, err, map[string]any{
			apperr.MetaReason: "navigate_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	return nil
}

// Click waits for loc to be clickable, centres it and clicks it. When another
// element intercepts the native click the engine dispatches the click on the
// node directly instead of failing.
func (e *Engine) Click(ctx context.Context, loc locator.Locator) (err error) {
	const op = "Click"

	ctx, a := e.begin(ctx, op, entity.ActionTypeClick, loc.String())
	defer func() { a.finish(err) }()

	m, err := a.resolve(ctx, loc, wait.Clickable())
	if err != nil {
		return err
	}

	a.to(entity.ActionStateActing)
	h := m.First()

	if err := e.session.ScrollIntoView(ctx, h); err != nil {
		return a.actionFailed(op, "scroll_failed", err)
	}

	err = e.session.DispatchClick(ctx, h)
	if errors.Is(err, ports.ErrOccluded) {
		a.logger.Info("Native click intercepted, dispatching on node", zap.Error(err))
		a.step.AddEvent("programmatic click fallback")
		e.metrics.recordFallback()

		err = e.session.DispatchProgrammaticClick(ctx, h)
	}

	if err != nil {
		return a.actionFailed(op, "click_failed", err)
	}

	return nil
}

func (e *Engine) Hover(ctx context.Context, loc locator.Locator) (err error) {
	const op = "Hover"

	ctx, a := e.begin(ctx, op, entity.ActionTypeHover, loc.String())
	defer func() { a.finish(err) }()

	m, err := a.resolve(ctx, loc, wait.Visible())
	if err != nil {
		return err
	}

	a.to(entity.ActionStateActing)

	if err := e.session.MovePointer(ctx, m.First()); err != nil {
		return a.actionFailed(op, "move_pointer_failed", err)
	}

	return nil
}

// HoverAt moves the pointer over the index-th match of loc.
func (e *Engine) HoverAt(ctx context.Context, loc locator.Locator, index int) (err error) {
	const op = "HoverAt"

	ctx, a := e.begin(ctx, op, entity.ActionTypeHover, nthTarget(loc, index), attribute.Int("index", index))
	defer func() { a.finish(err) }()

	if err := checkIndex(op, loc, index); err != nil {
		return err
	}

	m, err := a.resolveQuery(ctx, e.nth(loc, index), wait.Visible())
	if err != nil {
		return err
	}

	a.to(entity.ActionStateActing)

	if err := e.session.MovePointer(ctx, m.First()); err != nil {
		return a.actionFailed(op, "move_pointer_failed", err)
	}

	return nil
}

// ScrollIntoView centres the first match of loc in the viewport. Repeating it
// on an unchanged page leaves the scroll position where it is.
func (e *Engine) ScrollIntoView(ctx context.Context, loc locator.Locator) (err error) {
	const op = "ScrollIntoView"

	ctx, a := e.begin(ctx, op, entity.ActionTypeScrollIntoView, loc.String())
	defer func() { a.finish(err) }()

	m, err := a.resolve(ctx, loc, wait.Present())
	if err != nil {
		return err
	}

	a.to(entity.ActionStateActing)

	if err := e.session.ScrollIntoView(ctx, m.First()); err != nil {
		return a.actionFailed(op, "scroll_failed", err)
	}

	return nil
}

func (e *Engine) ScrollIntoViewAt(ctx context.Context, loc locator.Locator, index int) (err error) {
	const op = "ScrollIntoViewAt"

	ctx, a := e.begin(ctx, op, entity.ActionTypeScrollIntoView, nthTarget(loc, index), attribute.Int("index", index))
	defer func() { a.finish(err) }()

	if err := checkIndex(op, loc, index); err != nil {
		return err
	}

	m, err := a.resolveQuery(ctx, e.nth(loc, index), wait.Present())
	if err != nil {
		return err
	}

	a.to(entity.ActionStateActing)

	if err := e.session.ScrollIntoView(ctx, m.First()); err != nil {
		return a.actionFailed(op, "scroll_failed", err)
	}

	return nil
}

// ReadText returns the trimmed text of the first visible match of loc.
func (e *Engine) ReadText(ctx context.Context, loc locator.Locator) (text string, err error) {
	const op = "ReadText"

	ctx, a := e.begin(ctx, op, entity.ActionTypeReadText, loc.String())
	defer func() { a.finish(err) }()

	m, err := a.resolve(ctx, loc, wait.Visible())
	if err != nil {
		return "", notFoundIfEmpty(op, err)
	}

	a.to(entity.ActionStateActing)

	text, err = m.First().Text()
	if err != nil {
		return "", a.actionFailed(op, "read_text_failed", err)
	}

	return strings.TrimSpace(text), nil
}

// ReadTextWithin reads child inside the index-th match of parent. The parent
// list is queried again on every poll, so a list re-rendered by a filter does
// not leave the call holding a dead node.
func (e *Engine) ReadTextWithin(ctx context.Context, parent locator.Locator, index int, child locator.Locator) (text string, err error) {
	const op = "ReadTextWithin"

	target := nthTarget(parent, index) + " >> " + child.String()

	ctx, a := e.begin(ctx, op, entity.ActionTypeReadText, target, attribute.Int("index", index))
	defer func() { a.finish(err) }()

	if err := checkIndex(op, parent, index); err != nil {
		return "", err
	}

	if err := child.Validate(); err != nil {
		return "", err
	}

	nth := e.nth(parent, index)
	q := query{target: target, run: func(ctx context.Context) ([]ports.ElementHandle, error) {
		parents, err := nth.run(ctx)
		if err != nil || len(parents) == 0 {
			return nil, err
		}

		return e.session.FindWithin(ctx, parents[0], child)
	}}

	m, err := a.resolveQuery(ctx, q, wait.Present())
	if err != nil {
		return "", notFoundIfEmpty(op, err)
	}

	a.to(entity.ActionStateActing)

	text, err = m.First().Text()
	if err != nil {
		return "", a.actionFailed(op, "read_text_failed", err)
	}

	return strings.TrimSpace(text), nil
}

// Count waits for at least one match of loc and returns how many there are.
func (e *Engine) Count(ctx context.Context, loc locator.Locator) (n int, err error) {
	const op = "Count"

	ctx, a := e.begin(ctx, op, entity.ActionTypeCount, loc.String())
	defer func() { a.finish(err) }()

	m, err := a.resolve(ctx, loc, wait.CountAtLeast(1))
	if err != nil {
		return 0, notFoundIfEmpty(op, err)
	}

	a.to(entity.ActionStateActing)

	return len(m.Handles), nil
}

// IsVisible never fails: a timeout, or any other failure, reads as false.
// The journal entry still carries the real error kind, cancelled included.
func (e *Engine) IsVisible(ctx context.Context, loc locator.Locator) bool {
	const op = "IsVisible"

	ctx, a := e.begin(ctx, op, entity.ActionTypeIsVisible, loc.String())

	_, err := a.resolve(ctx, loc, wait.Visible())
	switch {
	case err == nil:
		a.to(entity.ActionStateActing)
	case apperr.HasCode(err, apperr.CodeCancelled):
		a.logger.Info("Visibility check cancelled", zap.Error(err))
	default:
		a.logger.Debug("Element not visible", zap.Error(err))
	}

	a.finish(err)

	return err == nil
}

// IsVisibleWithin is IsVisible with its own deadline, for elements that may
// legitimately never show up.
func (e *Engine) IsVisibleWithin(ctx context.Context, loc locator.Locator, timeout time.Duration) bool {
	return e.With(e.policy.WithTimeout(timeout)).IsVisible(ctx, loc)
}

func (e *Engine) WaitForURL(ctx context.Context, substring string) (err error) {
	const op = "WaitForURL"

	ctx, a := e.begin(ctx, op, entity.ActionTypeWaitURL, substring, attribute.String("substring", substring))
	defer func() { a.finish(err) }()

	if err := a.until(ctx, wait.URLContains(substring)); err != nil {
		return err
	}

	a.to(entity.ActionStateActing)

	return nil
}

// WaitForNewContext blocks until exactly expectedCount browsing contexts are
// open. Call it after an action that opens a tab and before SwitchToContext.
func (e *Engine) WaitForNewContext(ctx context.Context, expectedCount int) (err error) {
	const op = "WaitForNewContext"

	ctx, a := e.begin(ctx, op, entity.ActionTypeWaitContext, fmt.Sprintf("contexts=%d", expectedCount), attribute.Int("expected", expectedCount))
	defer func() { a.finish(err) }()

	if err := a.until(ctx, wait.WindowCountEquals(expectedCount)); err != nil {
		return err
	}

	a.to(entity.ActionStateActing)

	return nil
}

// SwitchToContext focuses the index-th open context, ordered by creation.
func (e *Engine) SwitchToContext(ctx context.Context, index int) (err error) {
	const op = "SwitchToContext"

	ctx, a := e.begin(ctx, op, entity.ActionTypeSwitchContext, fmt.Sprintf("context[%d]", index), attribute.Int("index", index))
	defer func() { a.finish(err) }()

	meta := map[string]any{
		apperr.MetaStage: apperr.StageContext,
		apperr.MetaIndex: index,
	}

	a.to(entity.ActionStatePolling)

	contexts, err := e.session.ListContexts(ctx)
	if err != nil {
		meta[apperr.MetaReason] = "list_contexts_failed"

		return apperr.Wrap(op, apperr.CodeContextSwitchFailed, err, meta)
	}

	if index < 0 || index >= len(contexts) {
		meta[apperr.MetaReason] = "index_out_of_range"

		return apperr.Wrap(op, apperr.CodeContextSwitchFailed,
			fmt.Errorf("context %d requested, %d open", index, len(contexts)), meta)
	}

	a.to(entity.ActionStateResolved)
	a.to(entity.ActionStateActing)

	if err := e.session.SwitchContext(ctx, index); err != nil {
		meta[apperr.MetaReason] = "switch_failed"

		return apperr.Wrap(op, apperr.CodeContextSwitchFailed, err, meta)
	}

	a.logger.Info("Switched context", zap.Int(logg.Context, index), zap.String(logg.URL, contexts[index].URL))

	return nil
}

// SelectFromMenu opens a dropdown with trigger and clicks the option whose
// locator is option filled with optionText.
func (e *Engine) SelectFromMenu(ctx context.Context, trigger locator.Locator, option locator.Template, optionText string) (err error) {
	const op = "SelectFromMenu"

	ctx, a := e.begin(ctx, op, entity.ActionTypeSelectFromMenu, trigger.String(), attribute.String("option", optionText))
	defer func() { a.finish(err) }()

	optionLoc, err := option.Fill(optionText)
	if err != nil {
		return err
	}

	if err := e.Click(ctx, trigger); err != nil {
		return err
	}

	if _, err := a.resolve(ctx, optionLoc, wait.Visible()); err != nil {
		return notFoundIfEmpty(op, err)
	}

	a.to(entity.ActionStateActing)

	return e.Click(ctx, optionLoc)
}

type query struct {
	target string
	run    wait.Query
}

func (e *Engine) nth(loc locator.Locator, index int) query {
	return query{target: nthTarget(loc, index), run: func(ctx context.Context) ([]ports.ElementHandle, error) {
		handles, err := e.session.FindElements(ctx, loc)
		if err != nil || len(handles) <= index {
			return nil, err
		}

		return handles[index : index+1], nil
	}}
}

func nthTarget(loc locator.Locator, index int) string {
	return fmt.Sprintf("%s[%d]", loc, index)
}

func checkIndex(op string, loc locator.Locator, index int) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	if index < 0 {
		return apperr.InvalidReqError(op, "index", fmt.Errorf("negative index %d", index))
	}

	return nil
}

// notFoundIfEmpty reclassifies a timeout as ElementNotFound when the last
// poll saw no matches at all.
func notFoundIfEmpty(op string, err error) error {
	var te *wait.TimeoutError
	if !errors.As(err, &te) || te.Matches != 0 {
		return err
	}

	return apperr.NotFoundError(op, te.Target, err)
}

// ErrorKind maps an engine error onto the failure taxonomy.
func ErrorKind(err error) entity.ErrorKind {
	if err == nil {
		return entity.ErrorKindNone
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeTimeoutExceeded:
		return entity.ErrorKindTimeoutExceeded
	case apperr.CodeElementNotFound:
		return entity.ErrorKindElementNotFound
	case apperr.CodeNavigationFailed:
		return entity.ErrorKindNavigationFailed
	case apperr.CodeContextSwitchFailed:
		return entity.ErrorKindContextSwitchFailed
	case apperr.CodeSessionNotReady:
		return entity.ErrorKindSessionNotReady
	case apperr.CodeInvalidArgument:
		return entity.ErrorKindInvalidArgument
	case apperr.CodeAssertionFailed:
		return entity.ErrorKindAssertionFailed
	case apperr.CodeActionFailed:
		return entity.ErrorKindActionFailed
	case apperr.CodeCancelled:
		return entity.ErrorKindCancelled
	default:
		return entity.ErrorKindInternal
	}
}
