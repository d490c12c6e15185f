package engine

import (
	"careers-ui-suite/internal/browser/browsertest"
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/wait"
	"careers-ui-suite/pkg/apperr"
	"careers-ui-suite/pkg/logg"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	homeURL    = "https://useinsider.com/"
	careersURL = "https://useinsider.com/careers/"
	leverURL   = "https://jobs.lever.co/useinsider/senior-qa"
)

var (
	careersLink    = locator.ByXPath("//a[text()='Careers']")
	jobCards       = locator.ByCSS("div.position-list-item")
	cardPosition   = locator.ByCSS("span.position-department")
	locationFilter = locator.ByID("select2-filter-by-location-container")
	optionTemplate = locator.MustTemplate(locator.XPath, "//li[contains(text(), '%s')]")
)

type harness struct {
	engine  *Engine
	session *browsertest.Session
	results []entity.InteractionResult
	metrics *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		session: browsertest.New(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}

	h.engine = New(Params{
		Session: h.session,
		Policy:  wait.MustPolicy(300*time.Millisecond, 10*time.Millisecond),
		Logger:  zaptest.NewLogger(t),
		Metrics: h.metrics,
		Observer: func(r entity.InteractionResult) {
			h.results = append(h.results, r)
		},
	})

	return h
}

func (h *harness) last() entity.InteractionResult {
	return h.results[len(h.results)-1]
}

func TestClickReachesDone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.session.Route(homeURL, func(p *browsertest.Page) {
		p.Set(careersLink, &browsertest.Element{
			Text: "Careers",
			OnClick: func(s *browsertest.Session) {
				_ = s.Navigate(context.Background(), careersURL)
			},
		})
	})

	require.NoError(t, h.engine.Navigate(ctx, homeURL))
	require.NoError(t, h.engine.Click(ctx, careersLink))

	r := h.last()
	assert.Equal(t, entity.ActionTypeClick, r.Action)
	assert.True(t, r.Success)
	assert.Equal(t, entity.ActionStateDone, r.State)
	assert.Equal(t, entity.ErrorKindNone, r.ErrorKind)
	assert.Contains(t, h.engine.CurrentURL(), "careers")
}

func TestClickFallsBackWhenOccluded(t *testing.T) {
	h := newHarness(t)
	qaTeam := locator.ByXPath("//h3[text()='Quality Assurance']")
	el := &browsertest.Element{Occluded: true}
	h.session.Mutate(func(p *browsertest.Page) { p.Set(qaTeam, el) })

	require.NoError(t, h.engine.Click(context.Background(), qaTeam))

	native, programmatic := h.session.Clicks(el)
	assert.Equal(t, 0, native)
	assert.Equal(t, 1, programmatic)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.fallbacks))
	assert.Contains(t, h.session.Calls(), "scroll_into_view")
}

func TestClickPrefersNativeDispatch(t *testing.T) {
	h := newHarness(t)
	el := &browsertest.Element{}
	h.session.Mutate(func(p *browsertest.Page) { p.Set(careersLink, el) })

	require.NoError(t, h.engine.Click(context.Background(), careersLink))

	native, programmatic := h.session.Clicks(el)
	assert.Equal(t, 1, native)
	assert.Equal(t, 0, programmatic)
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.fallbacks))
}

func TestClickTimesOut(t *testing.T) {
	h := newHarness(t)
	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(careersLink, &browsertest.Element{Disabled: true})
	})

	err := h.engine.Click(context.Background(), careersLink)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTimeoutExceeded, apperr.CodeOf(err))
	assert.ErrorIs(t, err, wait.ErrTimeoutExceeded)

	r := h.last()
	assert.False(t, r.Success)
	assert.Equal(t, entity.ErrorKindTimeoutExceeded, r.ErrorKind)
	assert.Equal(t, entity.ActionStateFailed, r.State)
	assert.True(t, r.State.Terminal())
}

func TestHoverDoesNotClick(t *testing.T) {
	h := newHarness(t)
	el := &browsertest.Element{}
	h.session.Mutate(func(p *browsertest.Page) { p.Set(jobCards, el) })

	require.NoError(t, h.engine.Hover(context.Background(), jobCards))

	assert.Same(t, el, h.session.Hovered())
	native, programmatic := h.session.Clicks(el)
	assert.Zero(t, native+programmatic)
}

func TestHoverAtPicksOrdinal(t *testing.T) {
	h := newHarness(t)
	first, second := &browsertest.Element{}, &browsertest.Element{}
	h.session.Mutate(func(p *browsertest.Page) { p.Set(jobCards, first, second) })

	require.NoError(t, h.engine.HoverAt(context.Background(), jobCards, 1))
	assert.Same(t, second, h.session.Hovered())

	err := h.engine.HoverAt(context.Background(), jobCards, -1)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestScrollIntoViewIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(jobCards, &browsertest.Element{Y: 1800}, &browsertest.Element{Y: 2400})
	})

	ctx := context.Background()

	require.NoError(t, h.engine.ScrollIntoView(ctx, jobCards))
	first := h.session.ScrollY()
	require.NoError(t, h.engine.ScrollIntoView(ctx, jobCards))

	assert.Equal(t, first, h.session.ScrollY())
	assert.Equal(t, 1400, first)

	require.NoError(t, h.engine.ScrollIntoViewAt(ctx, jobCards, 1))
	assert.Equal(t, 2000, h.session.ScrollY())
}

func TestReadText(t *testing.T) {
	h := newHarness(t)
	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(cardPosition,
			&browsertest.Element{Text: "  Senior Software Quality Assurance Engineer \n"},
			&browsertest.Element{Text: "Software QA Tester"},
		)
	})

	text, err := h.engine.ReadText(context.Background(), cardPosition)
	require.NoError(t, err)
	assert.Equal(t, "Senior Software Quality Assurance Engineer", text)
}

func TestReadTextNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.ReadText(context.Background(), cardPosition)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeElementNotFound, apperr.CodeOf(err))
	assert.Equal(t, entity.ErrorKindElementNotFound, h.last().ErrorKind)

	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(cardPosition, &browsertest.Element{Hidden: true})
	})

	_, err = h.engine.ReadText(context.Background(), cardPosition)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTimeoutExceeded, apperr.CodeOf(err))
}

func TestReadTextWithinSurvivesRerender(t *testing.T) {
	h := newHarness(t)

	card := func(position string) *browsertest.Element {
		return (&browsertest.Element{}).Child(cardPosition, &browsertest.Element{Text: position})
	}

	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(jobCards, card("Sales Manager"), card("Product Designer"))
	})

	ctx := context.Background()

	n, err := h.engine.Count(ctx, jobCards)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The filter re-renders the list: every previously resolved node is gone.
	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(jobCards, card("Software QA Tester"), card("Senior Software Quality Assurance Engineer"))
	})

	text, err := h.engine.ReadTextWithin(ctx, jobCards, 1, cardPosition)
	require.NoError(t, err)
	assert.Equal(t, "Senior Software Quality Assurance Engineer", text)

	_, err = h.engine.ReadTextWithin(ctx, jobCards, 5, cardPosition)
	assert.Equal(t, apperr.CodeElementNotFound, apperr.CodeOf(err))
}

func TestCountNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Count(context.Background(), jobCards)
	assert.Equal(t, apperr.CodeElementNotFound, apperr.CodeOf(err))
}

func TestIsVisibleNeverFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.False(t, h.engine.IsVisible(ctx, careersLink))
	assert.False(t, h.engine.IsVisible(ctx, locator.Locator{}))

	h.session.Mutate(func(p *browsertest.Page) { p.Set(careersLink, &browsertest.Element{Hidden: true}) })
	assert.False(t, h.engine.IsVisible(ctx, careersLink))

	h.session.Mutate(func(p *browsertest.Page) { p.Set(careersLink, &browsertest.Element{}) })
	assert.True(t, h.engine.IsVisible(ctx, careersLink))

	require.NoError(t, h.session.Close(ctx))
	assert.False(t, h.engine.IsVisible(ctx, careersLink))
}

func TestIsVisibleWithinUsesShortDeadline(t *testing.T) {
	h := newHarness(t)
	h.engine = h.engine.With(wait.MustPolicy(5*time.Second, 10*time.Millisecond))

	start := time.Now()
	assert.False(t, h.engine.IsVisibleWithin(context.Background(), careersLink, 30*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 5*time.Second, h.engine.Policy().Timeout())
}

func TestWaitForNewContext(t *testing.T) {
	h := newHarness(t)
	viewRole := locator.ByCSS("div.position-list-item-wrapper a.btn.btn-navy")
	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(viewRole, &browsertest.Element{
			OnClick: func(s *browsertest.Session) { s.OpenContext(leverURL) },
		})
	})

	ctx := context.Background()

	require.NoError(t, h.engine.Click(ctx, viewRole))
	require.NoError(t, h.engine.WaitForNewContext(ctx, 2))
	require.NoError(t, h.engine.SwitchToContext(ctx, 1))
	require.NoError(t, h.engine.WaitForURL(ctx, "jobs.lever.co"))
	assert.Equal(t, 1, h.session.ActiveIndex())
}

func TestWaitForNewContextTimesOut(t *testing.T) {
	h := newHarness(t)

	err := h.engine.WaitForNewContext(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTimeoutExceeded, apperr.CodeOf(err))
	assert.Equal(t, entity.ErrorKindTimeoutExceeded, h.last().ErrorKind)
}

func TestSwitchToContextOutOfRange(t *testing.T) {
	h := newHarness(t)

	err := h.engine.SwitchToContext(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeContextSwitchFailed, apperr.CodeOf(err))
	assert.Equal(t, entity.ErrorKindContextSwitchFailed, h.last().ErrorKind)
}

func TestSwitchToContextFollowsCreationOrder(t *testing.T) {
	h := newHarness(t)
	h.session.OpenContext("https://example.com/second")
	h.session.OpenContext("https://example.com/third")

	require.NoError(t, h.engine.SwitchToContext(context.Background(), 2))
	assert.Equal(t, "https://example.com/third", h.engine.CurrentURL())
}

func TestSelectFromMenu(t *testing.T) {
	h := newHarness(t)
	istanbul := &browsertest.Element{Text: "Istanbul, Turkiye", Hidden: true}
	menuOpen := false

	option, err := optionTemplate.Fill("Istanbul, Turkiye")
	require.NoError(t, err)

	istanbul.OnClick = func(s *browsertest.Session) {
		s.Mutate(func(*browsertest.Page) {
			menuOpen = false
			istanbul.Hidden = true
		})
	}

	h.session.Mutate(func(p *browsertest.Page) {
		p.Set(locationFilter, &browsertest.Element{
			Text: "All",
			OnClick: func(s *browsertest.Session) {
				s.Mutate(func(*browsertest.Page) {
					menuOpen = true
					istanbul.Hidden = false
				})
			},
		})
		p.Set(option, istanbul)
	})

	require.NoError(t, h.engine.SelectFromMenu(context.Background(), locationFilter, optionTemplate, "Istanbul, Turkiye"))

	native, _ := h.session.Clicks(istanbul)
	assert.Equal(t, 1, native)
	assert.False(t, menuOpen)

	actions := make([]entity.ActionType, 0, len(h.results))
	for _, r := range h.results {
		actions = append(actions, r.Action)
	}

	assert.Equal(t, []entity.ActionType{
		entity.ActionTypeClick,
		entity.ActionTypeClick,
		entity.ActionTypeSelectFromMenu,
	}, actions)
}

func TestSelectFromMenuMissingOption(t *testing.T) {
	h := newHarness(t)
	h.session.Mutate(func(p *browsertest.Page) { p.Set(locationFilter, &browsertest.Element{}) })

	err := h.engine.SelectFromMenu(context.Background(), locationFilter, optionTemplate, "Atlantis")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeElementNotFound, apperr.CodeOf(err))

	err = h.engine.SelectFromMenu(context.Background(), locationFilter, optionTemplate, "")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestNavigateFailure(t *testing.T) {
	h := newHarness(t)
	h.session.FailNavigation(errors.New("net::ERR_NAME_NOT_RESOLVED"))

	err := h.engine.Navigate(context.Background(), homeURL)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNavigationFailed, apperr.CodeOf(err))

	url, ok := apperr.MetaOf(err, apperr.MetaURL)
	require.True(t, ok)
	assert.Equal(t, homeURL, url)
	assert.Equal(t, entity.ErrorKindNavigationFailed, ErrorKind(err))

	err = h.engine.Navigate(context.Background(), "")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestActionsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	h := newHarness(t)
	h.session.Mutate(func(p *browsertest.Page) { p.Set(careersLink, &browsertest.Element{}) })

	require.NoError(t, h.engine.Click(context.Background(), careersLink))
	_ = h.engine.IsVisible(context.Background(), jobCards)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "Click", spans[0].Name())
	assert.Equal(t, "IsVisible", spans[1].Name())

	assert.Equal(t, []string{"polling", "resolved", "acting", "done"}, stateEvents(spans[0]))
	assert.Equal(t, []string{"polling", "timed_out", "failed"}, stateEvents(spans[1]))
}

// stateEvents drops the exception event that RecordError adds to failed spans.
func stateEvents(span sdktrace.ReadOnlySpan) []string {
	var states []string

	for _, ev := range span.Events() {
		if ev.Name == semconv.ExceptionEventName {
			continue
		}

		states = append(states, ev.Name)
	}

	return states
}

func TestIsVisibleRecordsCancellation(t *testing.T) {
	h := newHarness(t)
	h.session.Mutate(func(p *browsertest.Page) { p.Set(jobCards, &browsertest.Element{}) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, h.engine.IsVisible(ctx, jobCards))

	r := h.last()
	assert.Equal(t, entity.ErrorKindCancelled, r.ErrorKind)
	assert.Equal(t, entity.ActionStateFailed, r.State)
}

func TestActionsLogStateAndCondition(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := browsertest.New()
	s.Mutate(func(p *browsertest.Page) { p.Set(careersLink, &browsertest.Element{}) })

	e := New(Params{
		Session: s,
		Policy:  wait.MustPolicy(300*time.Millisecond, 10*time.Millisecond),
		Logger:  zap.New(core),
	})

	require.NoError(t, e.Click(context.Background(), careersLink))

	var states []string
	for _, entry := range logs.FilterMessage("Action state").All() {
		states = append(states, entry.ContextMap()[logg.State].(string))
	}

	assert.Equal(t, []string{"polling", "resolved", "acting", "done"}, states)

	waiting := logs.FilterMessage("Waiting").All()
	require.Len(t, waiting, 1)
	assert.Equal(t, "clickable", waiting[0].ContextMap()[logg.Condition])
	assert.Equal(t, careersLink.String(), waiting[0].ContextMap()[logg.Locator])
}

func TestNotFoundCarriesLocator(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Count(context.Background(), jobCards)
	require.Error(t, err)

	loc, ok := apperr.MetaOf(err, apperr.MetaLocator)
	require.True(t, ok)
	assert.Equal(t, jobCards.String(), loc)

	reason, _ := apperr.MetaOf(err, apperr.MetaReason)
	assert.Equal(t, "not_found", reason)
}
