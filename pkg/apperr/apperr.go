package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason    = "reason"
	MetaStage     = "stage"
	MetaField     = "field"
	MetaLocator   = "locator"
	MetaCondition = "condition"
	MetaElapsedMs = "elapsed_ms"
	MetaMatches   = "matches"
	MetaURL       = "url"
	MetaIndex     = "index"
	MetaScenario  = "scenario"

	StageSession     = "session"
	StageWait        = "wait"
	StageNavigation  = "navigation"
	StageInteraction = "interaction"
	StageContext     = "context"
	StageAssertion   = "assertion"

	CodeInternal            = "internal"
	CodeInvalidArgument     = "invalid_argument"
	CodeTimeoutExceeded     = "timeout_exceeded"
	CodeElementNotFound     = "element_not_found"
	CodeNavigationFailed    = "navigation_failed"
	CodeContextSwitchFailed = "context_switch_failed"
	CodeSessionNotReady     = "session_not_ready"
	CodeActionFailed        = "action_failed"
	CodeAssertionFailed     = "assertion_failed"
	CodeCancelled           = "cancelled"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

// NotFoundError reports that target matched nothing.
func NotFoundError(op, target string, err error) error {
	return Wrap(op, CodeElementNotFound, err, map[string]any{
		MetaReason:  "not_found",
		MetaStage:   StageWait,
		MetaLocator: target,
	})
}

// AssertionError reports a scenario expectation that did not hold.
func AssertionError(op, format string, args ...any) error {
	return Wrap(op, CodeAssertionFailed, fmt.Errorf(format, args...), map[string]any{
		MetaStage: StageAssertion,
	})
}

// CodeOf returns the code of the outermost *Error in the chain, or
// CodeInternal when the chain carries none.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeInternal
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return false
		}

		if appErr.Code == code {
			return true
		}

		err = appErr.Err
	}

	return false
}

// MetaOf walks the chain outermost first and returns the first value stored
// under key.
func MetaOf(err error, key string) (any, bool) {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return nil, false
		}

		if v, ok := appErr.Metadata[key]; ok {
			return v, true
		}

		err = appErr.Err
	}

	return nil, false
}
