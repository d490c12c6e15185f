package ports

import (
	"careers-ui-suite/internal/entity"
	"careers-ui-suite/internal/locator"
	"context"
	"errors"
	"time"
)

var (
	// ErrStaleHandle marks an element handle whose node was removed or
	// replaced since it was resolved.
	ErrStaleHandle = errors.New("stale element handle")
	// ErrOccluded marks a native click that another element intercepted.
	ErrOccluded = errors.New("click target is occluded")
	// ErrSessionClosed is returned by every primitive after Close.
	ErrSessionClosed = errors.New("session is closed")
)

// ElementHandle is a transient reference to a DOM node owned by the session.
// It is valid only until the next navigation or DOM mutation.
type ElementHandle interface {
	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	Text() (string, error)
}

type ContextInfo struct {
	Index int
	URL   string
}

type SessionOptions struct {
	MaximizeWindow bool
	Headless       bool
}

// Session is one live browser connection. It is not safe for concurrent use.
type Session interface {
	Navigate(ctx context.Context, url string) error
	FindElements(ctx context.Context, loc locator.Locator) ([]ElementHandle, error)
	FindWithin(ctx context.Context, parent ElementHandle, loc locator.Locator) ([]ElementHandle, error)
	DispatchClick(ctx context.Context, h ElementHandle) error
	DispatchProgrammaticClick(ctx context.Context, h ElementHandle) error
	MovePointer(ctx context.Context, h ElementHandle) error
	ScrollIntoView(ctx context.Context, h ElementHandle) error
	ListContexts(ctx context.Context) ([]ContextInfo, error)
	SwitchContext(ctx context.Context, index int) error
	CurrentURL() string
	Close(ctx context.Context) error
}

type SessionFactory interface {
	Open(ctx context.Context, opts SessionOptions) (Session, error)
}

// Interactor is the contract page objects are written against.
type Interactor interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, loc locator.Locator) error
	Hover(ctx context.Context, loc locator.Locator) error
	HoverAt(ctx context.Context, loc locator.Locator, index int) error
	ScrollIntoView(ctx context.Context, loc locator.Locator) error
	ScrollIntoViewAt(ctx context.Context, loc locator.Locator, index int) error
	ReadText(ctx context.Context, loc locator.Locator) (string, error)
	ReadTextWithin(ctx context.Context, parent locator.Locator, index int, child locator.Locator) (string, error)
	Count(ctx context.Context, loc locator.Locator) (int, error)
	IsVisible(ctx context.Context, loc locator.Locator) bool
	IsVisibleWithin(ctx context.Context, loc locator.Locator, timeout time.Duration) bool
	WaitForURL(ctx context.Context, substring string) error
	WaitForNewContext(ctx context.Context, expectedCount int) error
	SwitchToContext(ctx context.Context, index int) error
	SelectFromMenu(ctx context.Context, trigger locator.Locator, option locator.Template, optionText string) error
	CurrentURL() string
}

// ResultObserver receives one result per engine call.
type ResultObserver func(entity.InteractionResult)
