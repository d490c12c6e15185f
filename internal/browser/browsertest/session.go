// Package browsertest provides an in-memory ports.Session for exercising the
// engine and page objects without a browser.
package browsertest

import (
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const viewportHeight = 800

// Element is one fake DOM node. Y is its document offset, used to compute the
// scroll position when it is brought into view.
type Element struct {
	Text     string
	Hidden   bool
	Disabled bool
	Occluded bool
	Y        int
	Children map[locator.Locator][]*Element
	OnClick  func(s *Session)

	clicks             int
	programmaticClicks int
}

func (e *Element) Child(loc locator.Locator, children ...*Element) *Element {
	if e.Children == nil {
		e.Children = make(map[locator.Locator][]*Element)
	}

	e.Children[loc] = append(e.Children[loc], children...)

	return e
}

// Page is one browsing context. Every mutation bumps its generation, which
// invalidates all handles resolved before it.
type Page struct {
	URL        string
	elements   map[locator.Locator][]*Element
	generation int
	scrollY    int
}

func newPage(url string) *Page {
	return &Page{URL: url, elements: make(map[locator.Locator][]*Element)}
}

// Set replaces the matches of loc.
func (p *Page) Set(loc locator.Locator, els ...*Element) {
	p.elements[loc] = els
	p.generation++
}

func (p *Page) Add(loc locator.Locator, els ...*Element) {
	p.elements[loc] = append(p.elements[loc], els...)
	p.generation++
}

func (p *Page) Remove(loc locator.Locator) {
	delete(p.elements, loc)
	p.generation++
}

type Session struct {
	mu       sync.Mutex
	pages    []*Page
	active   int
	closed   bool
	routes   map[string]func(p *Page)
	faults   map[locator.Locator][]error
	calls    []string
	hovered  *Element
	navError error
}

func New() *Session {
	return &Session{
		pages:  []*Page{newPage("about:blank")},
		routes: make(map[string]func(p *Page)),
		faults: make(map[locator.Locator][]error),
	}
}

// Route registers the page content served at url.
func (s *Session) Route(url string, build func(p *Page)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes[url] = build
}

// FailNavigation makes every following Navigate return err.
func (s *Session) FailNavigation(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.navError = err
}

// FailFinds queues errs to be returned by the next FindElements calls on loc.
func (s *Session) FailFinds(loc locator.Locator, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faults[loc] = append(s.faults[loc], errs...)
}

// Mutate runs fn against the active page under the session lock.
func (s *Session) Mutate(fn func(p *Page)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.pages[s.active])
}

// After mutates the page that is active when d elapses.
func (s *Session) After(d time.Duration, fn func(p *Page)) *time.Timer {
	return time.AfterFunc(d, func() { s.Mutate(fn) })
}

// OpenContext appends a new browsing context, as a link with target=_blank
// would. Focus stays where it is.
func (s *Session) OpenContext(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := newPage(url)
	if build, ok := s.routes[url]; ok {
		build(p)
	}

	s.pages = append(s.pages, p)
}

func (s *Session) Clicks(el *Element) (native, programmatic int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return el.clicks, el.programmaticClicks
}

func (s *Session) ScrollY() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pages[s.active].scrollY
}

func (s *Session) Hovered() *Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hovered
}

func (s *Session) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Calls returns the primitive operations issued so far, in order.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("navigate " + url); err != nil {
		return err
	}

	if s.navError != nil {
		return s.navError
	}

	p := newPage(url)
	if build, ok := s.routes[url]; ok {
		build(p)
	}

	s.pages[s.active].generation++
	s.pages[s.active] = p
	s.hovered = nil

	return nil
}

func (s *Session) FindElements(_ context.Context, loc locator.Locator) ([]ports.ElementHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("find " + loc.String()); err != nil {
		return nil, err
	}

	if queued := s.faults[loc]; len(queued) > 0 {
		s.faults[loc] = queued[1:]

		return nil, queued[0]
	}

	page := s.pages[s.active]

	return s.wrap(page, page.elements[loc]), nil
}

func (s *Session) FindWithin(_ context.Context, parent ports.ElementHandle, loc locator.Locator) ([]ports.ElementHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("find_within " + loc.String()); err != nil {
		return nil, err
	}

	h, err := s.live(parent)
	if err != nil {
		return nil, err
	}

	return s.wrap(h.page, h.el.Children[loc]), nil
}

func (s *Session) DispatchClick(_ context.Context, eh ports.ElementHandle) error {
	s.mu.Lock()

	if err := s.enter("click"); err != nil {
		s.mu.Unlock()
		return err
	}

	h, err := s.live(eh)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if h.el.Occluded {
		s.mu.Unlock()
		return fmt.Errorf("%w: another element would receive the click", ports.ErrOccluded)
	}

	if h.el.Disabled {
		s.mu.Unlock()
		return errors.New("element is disabled")
	}

	h.el.clicks++
	onClick := h.el.OnClick
	s.mu.Unlock()

	if onClick != nil {
		onClick(s)
	}

	return nil
}

func (s *Session) DispatchProgrammaticClick(_ context.Context, eh ports.ElementHandle) error {
	s.mu.Lock()

	if err := s.enter("programmatic_click"); err != nil {
		s.mu.Unlock()
		return err
	}

	h, err := s.live(eh)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	h.el.programmaticClicks++
	onClick := h.el.OnClick
	s.mu.Unlock()

	if onClick != nil {
		onClick(s)
	}

	return nil
}

func (s *Session) MovePointer(_ context.Context, eh ports.ElementHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("move_pointer"); err != nil {
		return err
	}

	h, err := s.live(eh)
	if err != nil {
		return err
	}

	s.hovered = h.el

	return nil
}

func (s *Session) ScrollIntoView(_ context.Context, eh ports.ElementHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter("scroll_into_view"); err != nil {
		return err
	}

	h, err := s.live(eh)
	if err != nil {
		return err
	}

	h.page.scrollY = max(0, h.el.Y-viewportHeight/2)

	return nil
}

func (s *Session) ListContexts(_ context.Context) ([]ports.ContextInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ports.ErrSessionClosed
	}

	out := make([]ports.ContextInfo, len(s.pages))
	for i, p := range s.pages {
		out[i] = ports.ContextInfo{Index: i, URL: p.URL}
	}

	return out, nil
}

func (s *Session) SwitchContext(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(fmt.Sprintf("switch_context %d", index)); err != nil {
		return err
	}

	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("context %d out of range [0,%d)", index, len(s.pages))
	}

	s.active = index

	return nil
}

func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pages[s.active].URL
}

func (s *Session) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func (s *Session) enter(call string) error {
	if s.closed {
		return ports.ErrSessionClosed
	}

	s.calls = append(s.calls, call)

	return nil
}

func (s *Session) wrap(page *Page, els []*Element) []ports.ElementHandle {
	if len(els) == 0 {
		return nil
	}

	out := make([]ports.ElementHandle, len(els))
	for i, el := range els {
		out[i] = &handle{s: s, page: page, el: el, gen: page.generation}
	}

	return out
}

func (s *Session) live(eh ports.ElementHandle) (*handle, error) {
	h, ok := eh.(*handle)
	if !ok || h.s != s {
		return nil, fmt.Errorf("foreign element handle %T", eh)
	}

	if h.gen != h.page.generation {
		return nil, ports.ErrStaleHandle
	}

	return h, nil
}

type handle struct {
	s    *Session
	page *Page
	el   *Element
	gen  int
}

func (h *handle) IsVisible() (bool, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	if _, err := h.s.live(h); err != nil {
		return false, err
	}

	return !h.el.Hidden, nil
}

func (h *handle) IsEnabled() (bool, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	if _, err := h.s.live(h); err != nil {
		return false, err
	}

	return !h.el.Disabled, nil
}

func (h *handle) Text() (string, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	if _, err := h.s.live(h); err != nil {
		return "", err
	}

	if h.el.Hidden {
		return "", nil
	}

	return h.el.Text, nil
}
