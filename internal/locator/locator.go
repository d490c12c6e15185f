// Package locator describes how to find elements on a page. A Locator names a
// query, never a result: resolving it may yield zero, one or many elements.
package locator

import (
	"careers-ui-suite/pkg/apperr"
	"errors"
	"fmt"
	"strings"
)

type Strategy string

const (
	ID    Strategy = "id"
	CSS   Strategy = "css"
	XPath Strategy = "xpath"
)

var (
	ErrEmptyValue      = errors.New("locator value is empty")
	ErrUnknownStrategy = errors.New("unknown locator strategy")
	ErrUnquotable      = errors.New("text cannot be quoted in this template")
)

// Locator is comparable; two locators built from the same strategy and value
// are equal under ==.
type Locator struct {
	strategy Strategy
	value    string
}

func New(strategy Strategy, value string) (Locator, error) {
	const op = "locator.New"

	switch strategy {
	case ID, CSS, XPath:
	default:
		return Locator{}, apperr.InvalidReqError(op, "strategy", fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy))
	}

	if strings.TrimSpace(value) == "" {
		return Locator{}, apperr.InvalidReqError(op, "value", ErrEmptyValue)
	}

	return Locator{strategy: strategy, value: value}, nil
}

// MustNew is for locators fixed at compile time. A malformed one is a
// programming error and panics.
func MustNew(strategy Strategy, value string) Locator {
	l, err := New(strategy, value)
	if err != nil {
		panic(err)
	}

	return l
}

func ByID(id string) Locator        { return MustNew(ID, id) }
func ByCSS(selector string) Locator { return MustNew(CSS, selector) }
func ByXPath(expr string) Locator   { return MustNew(XPath, expr) }

func (l Locator) Strategy() Strategy { return l.strategy }
func (l Locator) Value() string      { return l.value }

// IsZero reports whether l was never constructed.
func (l Locator) IsZero() bool { return l.strategy == "" }

func (l Locator) Validate() error {
	_, err := New(l.strategy, l.value)
	return err
}

func (l Locator) String() string {
	if l.IsZero() {
		return "<zero locator>"
	}

	return fmt.Sprintf("%s(%q)", l.strategy, l.value)
}

// Selector renders the locator in the automation driver's selector syntax.
func (l Locator) Selector() string {
	return string(l.strategy) + "=" + l.value
}

// Template builds option locators for dropdown menus, e.g.
// "//li[contains(text(), '%s')]".
type Template struct {
	strategy Strategy
	pattern  string
}

func NewTemplate(strategy Strategy, pattern string) (Template, error) {
	const op = "locator.NewTemplate"

	if strings.Count(pattern, "%s") != 1 {
		return Template{}, apperr.InvalidReqError(op, "pattern", fmt.Errorf("pattern %q must contain exactly one %%s", pattern))
	}

	if _, err := New(strategy, pattern); err != nil {
		return Template{}, err
	}

	return Template{strategy: strategy, pattern: pattern}, nil
}

func MustTemplate(strategy Strategy, pattern string) Template {
	t, err := NewTemplate(strategy, pattern)
	if err != nil {
		panic(err)
	}

	return t
}

// Fill substitutes text into the template. Quotes in text are only accepted
// by XPath templates that quote the slot ('%s' or "%s"); the slot is then
// rewritten as a proper XPath literal.
func (t Template) Fill(text string) (Locator, error) {
	const op = "locator.Template.Fill"

	if strings.TrimSpace(text) == "" {
		return Locator{}, apperr.InvalidReqError(op, "text", ErrEmptyValue)
	}

	if !strings.ContainsAny(text, `'"`) {
		return New(t.strategy, fmt.Sprintf(t.pattern, text))
	}

	if t.strategy == XPath {
		for _, slot := range []string{`'%s'`, `"%s"`} {
			if strings.Contains(t.pattern, slot) {
				return New(t.strategy, strings.Replace(t.pattern, slot, xpathLiteral(text), 1))
			}
		}
	}

	return Locator{}, apperr.InvalidReqError(op, "text", fmt.Errorf("%w: %q in %s", ErrUnquotable, text, t))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences: text
// holding both quote kinds is assembled with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}

	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))

	for i, part := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}

		if part != "" {
			args = append(args, "'"+part+"'")
		}
	}

	return "concat(" + strings.Join(args, ", ") + ")"
}

func (t Template) String() string {
	return fmt.Sprintf("%s(%q)", t.strategy, t.pattern)
}
