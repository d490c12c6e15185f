package wait

import (
	"careers-ui-suite/internal/ports"
	"context"
	"fmt"
	"strings"
)

type Kind int

const (
	KindPresent Kind = iota + 1
	KindVisible
	KindClickable
	KindCountAtLeast
	KindURLContains
	KindWindowCountEquals
)

var kindNames = map[Kind]string{
	KindPresent:           "present",
	KindVisible:           "visible",
	KindClickable:         "clickable",
	KindCountAtLeast:      "count_at_least",
	KindURLContains:       "url_contains",
	KindWindowCountEquals: "window_count_equals",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Condition is the predicate a Policy polls for. N is used by the count
// kinds and Substring by KindURLContains.
type Condition struct {
	Kind      Kind
	N         int
	Substring string
}

func Present() Condition                { return Condition{Kind: KindPresent} }
func Visible() Condition                { return Condition{Kind: KindVisible} }
func Clickable() Condition              { return Condition{Kind: KindClickable} }
func CountAtLeast(n int) Condition      { return Condition{Kind: KindCountAtLeast, N: n} }
func URLContains(s string) Condition    { return Condition{Kind: KindURLContains, Substring: s} }
func WindowCountEquals(n int) Condition { return Condition{Kind: KindWindowCountEquals, N: n} }

func (c Condition) String() string {
	switch c.Kind {
	case KindCountAtLeast, KindWindowCountEquals:
		return fmt.Sprintf("%s(%d)", c.Kind, c.N)
	case KindURLContains:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Substring)
	default:
		return c.Kind.String()
	}
}

// OnElements reports whether the condition is evaluated against the result
// of a locator query rather than page-level state.
func (c Condition) OnElements() bool {
	switch c.Kind {
	case KindPresent, KindVisible, KindClickable, KindCountAtLeast:
		return true
	default:
		return false
	}
}

func (c Condition) validate() error {
	switch c.Kind {
	case KindPresent, KindVisible, KindClickable:
		return nil
	case KindCountAtLeast, KindWindowCountEquals:
		if c.N < 1 {
			return fmt.Errorf("%s needs n >= 1, got %d", c.Kind, c.N)
		}

		return nil
	case KindURLContains:
		if strings.TrimSpace(c.Substring) == "" {
			return fmt.Errorf("%s needs a non-empty substring", c.Kind)
		}

		return nil
	default:
		return fmt.Errorf("unknown condition %s", c.Kind)
	}
}

// satisfiedBy checks an element condition against one query result.
// Visibility and clickability look at the first match only.
func (c Condition) satisfiedBy(handles []ports.ElementHandle) (bool, error) {
	switch c.Kind {
	case KindPresent:
		return len(handles) > 0, nil
	case KindCountAtLeast:
		return len(handles) >= c.N, nil
	case KindVisible, KindClickable:
		if len(handles) == 0 {
			return false, nil
		}

		visible, err := handles[0].IsVisible()
		if err != nil || !visible {
			return false, err
		}

		if c.Kind == KindVisible {
			return true, nil
		}

		return handles[0].IsEnabled()
	default:
		return false, fmt.Errorf("%s is not an element condition", c.Kind)
	}
}

// satisfiedOn checks a page-level condition.
func (c Condition) satisfiedOn(ctx context.Context, s ports.Session) (bool, error) {
	switch c.Kind {
	case KindURLContains:
		return strings.Contains(s.CurrentURL(), c.Substring), nil
	case KindWindowCountEquals:
		contexts, err := s.ListContexts(ctx)
		if err != nil {
			return false, err
		}

		return len(contexts) == c.N, nil
	default:
		return false, fmt.Errorf("%s is not a page condition", c.Kind)
	}
}
