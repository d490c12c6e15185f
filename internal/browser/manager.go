package browser

import (
	"careers-ui-suite/internal/config"
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/apperr"
	"careers-ui-suite/pkg/logg"
	"careers-ui-suite/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	launcherName  = "BrowserLauncher"
	sessionName   = "BrowserSession"
	browserTracer = "browser.session"
	userAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var _ ports.SessionFactory = (*Launcher)(nil)

// Launcher owns the playwright driver and opens one browser per session.
type Launcher struct {
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	playwright *playwright.Playwright
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewLauncher(params Params) *Launcher {
	return &Launcher{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, launcherName)),
		tracer: otel.Tracer(browserTracer),
	}
}

func (l *Launcher) driver(ctx context.Context) (*playwright.Playwright, error) {
	const op = "driver"

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.playwright != nil {
		return l.playwright, nil
	}

	if l.config.BrowserConfig.Install {
		l.logger.Info("Installing playwright browsers...")

		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, apperr.Wrap(op, apperr.CodeSessionNotReady, err, map[string]any{
				apperr.MetaReason: "playwright_install_failed",
				apperr.MetaStage:  apperr.StageSession,
			})
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeSessionNotReady, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	l.playwright = pw

	return pw, nil
}

// Open launches a fresh browser with a single blank tab.
func (l *Launcher) Open(ctx context.Context, opts ports.SessionOptions) (_ ports.Session, err error) {
	const op = "Open"
	logger := l.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, l.tracer, logger, op,
		attribute.Bool("headless", opts.Headless),
		attribute.Bool("maximize", opts.MaximizeWindow))
	defer func() {
		step.End(err)
	}()

	pw, err := l.driver(ctx)
	if err != nil {
		return nil, err
	}

	step.AddEvent("launching chromium")

	args := []string{"--disable-blink-features=AutomationControlled"}
	if opts.MaximizeWindow {
		args = append(args, "--start-maximized", "--window-size=1920,1080")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(l.config.BrowserConfig.SlowMo)),
		Args:     args,
	})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeSessionNotReady, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	contextOptions := playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(userAgent),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport:          &playwright.Size{Width: 1280, Height: 720},
	}

	switch {
	case opts.MaximizeWindow && !opts.Headless:
		contextOptions.Viewport = nil
		contextOptions.NoViewport = playwright.Bool(true)
	case opts.MaximizeWindow:
		contextOptions.Viewport = &playwright.Size{Width: 1920, Height: 1080}
	}

	browserContext, err := browser.NewContext(contextOptions)
	if err != nil {
		_ = browser.Close()

		return nil, apperr.Wrap(op, apperr.CodeSessionNotReady, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browserContext.Close()
		_ = browser.Close()

		return nil, apperr.Wrap(op, apperr.CodeSessionNotReady, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	logger.Info("Browser session opened")

	return &Session{
		config:         l.config.BrowserConfig,
		logger:         l.logger.With(zap.String(logg.Layer, sessionName)),
		tracer:         l.tracer,
		browser:        browser,
		browserContext: browserContext,
		page:           page,
	}, nil
}

// Shutdown stops the playwright driver. Sessions must be closed first.
func (l *Launcher) Shutdown(ctx context.Context) error {
	const op = "Shutdown"

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.playwright == nil {
		return nil
	}

	if err := l.playwright.Stop(); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_stop_failed",
		})
	}

	l.playwright = nil
	l.logger.Info("Playwright stopped")

	return nil
}

// Session is a ports.Session over one playwright browser.
type Session struct {
	config         *config.BrowserConfig
	logger         *zap.Logger
	tracer         trace.Tracer
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	closed         bool
}

func (s *Session) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if s.closed {
		return ports.ErrSessionClosed
	}

	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.config.NavigationTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return classify(err)
	}

	logger.Info("Navigated")

	return nil
}

func (s *Session) FindElements(_ context.Context, loc locator.Locator) ([]ports.ElementHandle, error) {
	if s.closed {
		return nil, ports.ErrSessionClosed
	}

	handles, err := s.page.QuerySelectorAll(loc.Selector())
	if err != nil {
		return nil, classify(err)
	}

	return wrap(handles), nil
}

func (s *Session) FindWithin(_ context.Context, parent ports.ElementHandle, loc locator.Locator) ([]ports.ElementHandle, error) {
	el, err := s.unwrap(parent)
	if err != nil {
		return nil, err
	}

	handles, err := el.handle.QuerySelectorAll(loc.Selector())
	if err != nil {
		return nil, classify(err)
	}

	return wrap(handles), nil
}

// DispatchClick checks for an overlay at the node's centre before clicking,
// so an occluded target is reported at once rather than after the driver's
// own actionability timeout.
func (s *Session) DispatchClick(_ context.Context, h ports.ElementHandle) error {
	el, err := s.unwrap(h)
	if err != nil {
		return err
	}

	occluded, err := el.handle.Evaluate(occlusionScript())
	if err != nil {
		return classify(err)
	}

	if blocked, _ := occluded.(bool); blocked {
		return fmt.Errorf("%w: element at target centre is not the target", ports.ErrOccluded)
	}

	err = el.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(float64(s.config.ClickTimeout.Milliseconds())),
	})

	return classifyClick(err)
}

// classifyClick maps a native click failure. Only an element that the driver
// saw intercepting the pointer counts as occlusion; a bare timeout (element
// moving, disabled, outside the viewport) does not.
func classifyClick(err error) error {
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "intercepts pointer events") {
		return fmt.Errorf("%w: %v", ports.ErrOccluded, err)
	}

	return classify(err)
}

func (s *Session) DispatchProgrammaticClick(_ context.Context, h ports.ElementHandle) error {
	el, err := s.unwrap(h)
	if err != nil {
		return err
	}

	if _, err := el.handle.Evaluate(programmaticClickScript()); err != nil {
		return classify(err)
	}

	return nil
}

func (s *Session) MovePointer(_ context.Context, h ports.ElementHandle) error {
	el, err := s.unwrap(h)
	if err != nil {
		return err
	}

	err = el.handle.Hover(playwright.ElementHandleHoverOptions{
		Timeout: playwright.Float(float64(s.config.ClickTimeout.Milliseconds())),
	})

	return classify(err)
}

func (s *Session) ScrollIntoView(_ context.Context, h ports.ElementHandle) error {
	el, err := s.unwrap(h)
	if err != nil {
		return err
	}

	if _, err := el.handle.Evaluate(scrollIntoViewScript()); err != nil {
		return classify(err)
	}

	return nil
}

// ListContexts returns the open tabs in creation order.
func (s *Session) ListContexts(_ context.Context) ([]ports.ContextInfo, error) {
	if s.closed {
		return nil, ports.ErrSessionClosed
	}

	pages := s.openPages()
	out := make([]ports.ContextInfo, len(pages))

	for i, p := range pages {
		out[i] = ports.ContextInfo{Index: i, URL: p.URL()}
	}

	return out, nil
}

func (s *Session) SwitchContext(_ context.Context, index int) error {
	if s.closed {
		return ports.ErrSessionClosed
	}

	pages := s.openPages()
	if index < 0 || index >= len(pages) {
		return fmt.Errorf("context %d out of range [0,%d)", index, len(pages))
	}

	if err := pages[index].BringToFront(); err != nil {
		return classify(err)
	}

	s.page = pages[index]
	s.logger.Info("Focused context", zap.Int(logg.Context, index), zap.String(logg.URL, s.page.URL()))

	return nil
}

func (s *Session) CurrentURL() string {
	if s.page == nil || s.page.IsClosed() {
		return ""
	}

	return s.page.URL()
}

func (s *Session) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if s.closed {
		return nil
	}

	s.closed = true

	if err := s.browserContext.Close(); err != nil {
		logger.Warn("Failed to close context", zap.Error(err))
	}

	if err := s.browser.Close(); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_close_failed",
		})
	}

	logger.Info("Browser session closed")

	return nil
}

func (s *Session) openPages() []playwright.Page {
	all := s.browserContext.Pages()
	pages := make([]playwright.Page, 0, len(all))

	for _, p := range all {
		if !p.IsClosed() {
			pages = append(pages, p)
		}
	}

	return pages
}

func (s *Session) unwrap(h ports.ElementHandle) (*element, error) {
	if s.closed {
		return nil, ports.ErrSessionClosed
	}

	el, ok := h.(*element)
	if !ok {
		return nil, fmt.Errorf("foreign element handle %T", h)
	}

	return el, nil
}

type element struct {
	handle playwright.ElementHandle
}

func wrap(handles []playwright.ElementHandle) []ports.ElementHandle {
	if len(handles) == 0 {
		return nil
	}

	out := make([]ports.ElementHandle, len(handles))
	for i, h := range handles {
		out[i] = &element{handle: h}
	}

	return out
}

func (e *element) IsVisible() (bool, error) {
	visible, err := e.handle.IsVisible()

	return visible, classify(err)
}

func (e *element) IsEnabled() (bool, error) {
	enabled, err := e.handle.IsEnabled()

	return enabled, classify(err)
}

func (e *element) Text() (string, error) {
	text, err := e.handle.InnerText()

	return text, classify(err)
}

// classify maps driver errors onto the session error set so the wait loop
// can treat detached nodes as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	switch {
	case errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%w: %v", ports.ErrSessionClosed, err)
	case strings.Contains(msg, "not attached to the DOM"),
		strings.Contains(msg, "Element is not attached"),
		strings.Contains(msg, "JSHandle is disposed"),
		strings.Contains(msg, "Execution context was destroyed"):
		return fmt.Errorf("%w: %v", ports.ErrStaleHandle, err)
	default:
		return err
	}
}
