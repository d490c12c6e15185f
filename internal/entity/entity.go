package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionTypeNavigate       ActionType = "navigate"
	ActionTypeClick          ActionType = "click"
	ActionTypeHover          ActionType = "hover"
	ActionTypeScrollIntoView ActionType = "scroll_into_view"
	ActionTypeReadText       ActionType = "read_text"
	ActionTypeCount          ActionType = "count"
	ActionTypeIsVisible      ActionType = "is_visible"
	ActionTypeWaitURL        ActionType = "wait_url"
	ActionTypeWaitContext    ActionType = "wait_new_context"
	ActionTypeSwitchContext  ActionType = "switch_context"
	ActionTypeSelectFromMenu ActionType = "select_from_menu"
)

// ActionState is the lifecycle of a single engine call:
// Pending -> Polling -> Resolved -> Acting -> Done, or Polling -> TimedOut -> Failed.
type ActionState string

const (
	ActionStatePending  ActionState = "pending"
	ActionStatePolling  ActionState = "polling"
	ActionStateResolved ActionState = "resolved"
	ActionStateActing   ActionState = "acting"
	ActionStateDone     ActionState = "done"
	ActionStateTimedOut ActionState = "timed_out"
	ActionStateFailed   ActionState = "failed"
)

func (s ActionState) Terminal() bool {
	return s == ActionStateDone || s == ActionStateFailed
}

type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindTimeoutExceeded     ErrorKind = "timeout_exceeded"
	ErrorKindElementNotFound     ErrorKind = "element_not_found"
	ErrorKindNavigationFailed    ErrorKind = "navigation_failed"
	ErrorKindContextSwitchFailed ErrorKind = "context_switch_failed"
	ErrorKindSessionNotReady     ErrorKind = "session_not_ready"
	ErrorKindActionFailed        ErrorKind = "action_failed"
	ErrorKindCancelled           ErrorKind = "cancelled"
	ErrorKindInvalidArgument     ErrorKind = "invalid_argument"
	ErrorKindAssertionFailed     ErrorKind = "assertion_failed"
	ErrorKindInternal            ErrorKind = "internal"
)

type InteractionResult struct {
	Action    ActionType    `yaml:"action"`
	Locator   string        `yaml:"locator,omitempty"`
	Success   bool          `yaml:"success"`
	ErrorKind ErrorKind     `yaml:"error_kind,omitempty"`
	State     ActionState   `yaml:"state"`
	Elapsed   time.Duration `yaml:"elapsed"`
}

type ScenarioStatus string

const (
	ScenarioStatusPassed ScenarioStatus = "passed"
	ScenarioStatusFailed ScenarioStatus = "failed"
)

type ScenarioResult struct {
	Name         string              `yaml:"name"`
	Status       ScenarioStatus      `yaml:"status"`
	ErrorKind    ErrorKind           `yaml:"error_kind,omitempty"`
	Error        string              `yaml:"error,omitempty"`
	Locator      string              `yaml:"locator,omitempty"`
	StartedAt    time.Time           `yaml:"started_at"`
	Duration     time.Duration       `yaml:"duration"`
	Interactions []InteractionResult `yaml:"interactions,omitempty"`
}

type RunReport struct {
	ID          uuid.UUID        `yaml:"id"`
	BaseURL     string           `yaml:"base_url"`
	StartedAt   time.Time        `yaml:"started_at"`
	CompletedAt time.Time        `yaml:"completed_at"`
	Scenarios   []ScenarioResult `yaml:"scenarios"`
}

func (r *RunReport) Passed() bool {
	for _, s := range r.Scenarios {
		if s.Status != ScenarioStatusPassed {
			return false
		}
	}

	return true
}

func (r *RunReport) Counts() (passed, failed int) {
	for _, s := range r.Scenarios {
		if s.Status == ScenarioStatusPassed {
			passed++
		} else {
			failed++
		}
	}

	return passed, failed
}

// JobCard is the text read from one entry of the open positions list.
type JobCard struct {
	Index      int
	Position   string
	Department string
	Location   string
}
