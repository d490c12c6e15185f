// Package wait turns instantaneous page queries into bounded-time operations.
package wait

import (
	"careers-ui-suite/internal/locator"
	"careers-ui-suite/internal/ports"
	"careers-ui-suite/pkg/apperr"
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTimeoutExceeded = errors.New("timeout exceeded")

// TimeoutError carries what was being waited for when the deadline passed.
// Matches is the element count seen by the last poll; it is -1 for page
// conditions and when the last poll's query failed.
type TimeoutError struct {
	Condition Condition
	Target    string
	Elapsed   time.Duration
	Matches   int
	Cause     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: %s not satisfied for %s after %s", ErrTimeoutExceeded, e.Condition, e.Target, e.Elapsed.Round(time.Millisecond))
	if e.Cause != nil {
		msg += fmt.Sprintf(" (last fault: %v)", e.Cause)
	}

	return msg
}

func (e *TimeoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTimeoutExceeded}
	}

	return []error{ErrTimeoutExceeded, e.Cause}
}

// Query produces the candidate elements for one poll. A nil slice with a nil
// error means nothing matched yet.
type Query func(ctx context.Context) ([]ports.ElementHandle, error)

// Match is a successful resolution. Handles are only valid until the next
// action and must not be cached.
type Match struct {
	Handles []ports.ElementHandle
	Elapsed time.Duration
}

func (m Match) First() ports.ElementHandle {
	return m.Handles[0]
}

type Policy struct {
	timeout      time.Duration
	pollInterval time.Duration
}

func NewPolicy(timeout, pollInterval time.Duration) (Policy, error) {
	const op = "wait.NewPolicy"

	if timeout <= 0 {
		return Policy{}, apperr.InvalidReqError(op, "timeout", fmt.Errorf("timeout must be positive, got %s", timeout))
	}

	if pollInterval <= 0 {
		return Policy{}, apperr.InvalidReqError(op, "poll_interval", fmt.Errorf("poll interval must be positive, got %s", pollInterval))
	}

	return Policy{timeout: timeout, pollInterval: pollInterval}, nil
}

func MustPolicy(timeout, pollInterval time.Duration) Policy {
	p, err := NewPolicy(timeout, pollInterval)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Policy) Timeout() time.Duration      { return p.timeout }
func (p Policy) PollInterval() time.Duration { return p.pollInterval }

// WithTimeout returns a copy with a different deadline and the same cadence.
func (p Policy) WithTimeout(timeout time.Duration) Policy {
	if timeout <= 0 {
		return p
	}

	return Policy{timeout: timeout, pollInterval: p.pollInterval}
}

func (p Policy) String() string {
	return fmt.Sprintf("timeout=%s poll=%s", p.timeout, p.pollInterval)
}

// Resolve polls loc until cond holds.
func (p Policy) Resolve(ctx context.Context, s ports.Session, loc locator.Locator, cond Condition) (Match, error) {
	if err := loc.Validate(); err != nil {
		return Match{}, err
	}

	return p.ResolveQuery(ctx, loc.String(), func(ctx context.Context) ([]ports.ElementHandle, error) {
		return s.FindElements(ctx, loc)
	}, cond)
}

// ResolveQuery polls an arbitrary element query. target names the query in
// errors and logs.
func (p Policy) ResolveQuery(ctx context.Context, target string, query Query, cond Condition) (Match, error) {
	const op = "wait.Resolve"

	if err := p.check(op, cond, true); err != nil {
		return Match{}, err
	}

	var (
		found   []ports.ElementHandle
		matches int
	)

	elapsed, err := p.poll(ctx, func(ctx context.Context) (bool, error) {
		handles, err := query(ctx)
		if err != nil {
			matches = -1
			return false, err
		}

		matches = len(handles)

		ok, err := cond.satisfiedBy(handles)
		if ok && err == nil {
			found = handles
		}

		return ok, err
	})
	if err != nil {
		return Match{}, p.failure(op, cond, target, elapsed, matches, err)
	}

	return Match{Handles: found, Elapsed: elapsed}, nil
}

// Until polls a page-level condition (URL or window count).
func (p Policy) Until(ctx context.Context, s ports.Session, cond Condition) (time.Duration, error) {
	const op = "wait.Until"

	if err := p.check(op, cond, false); err != nil {
		return 0, err
	}

	elapsed, err := p.poll(ctx, func(ctx context.Context) (bool, error) {
		return cond.satisfiedOn(ctx, s)
	})
	if err != nil {
		return elapsed, p.failure(op, cond, "page", elapsed, -1, err)
	}

	return elapsed, nil
}

func (p Policy) check(op string, cond Condition, onElements bool) error {
	if p.timeout <= 0 || p.pollInterval <= 0 {
		return apperr.InvalidReqError(op, "policy", fmt.Errorf("unconfigured policy (%s)", p))
	}

	if err := cond.validate(); err != nil {
		return apperr.InvalidReqError(op, "condition", err)
	}

	if cond.OnElements() != onElements {
		return apperr.InvalidReqError(op, "condition", fmt.Errorf("%s cannot be used here", cond))
	}

	return nil
}

type timedOut struct {
	lastFault error
}

func (t *timedOut) Error() string { return "deadline reached" }

// poll runs probe until it reports true or the deadline passes. The probe
// runs once more at the deadline itself, so the call returns within
// timeout + pollInterval plus the cost of one probe. Probe errors count as
// "not yet"; the most recent one is kept as the cause of a timeout. A done
// ctx ends the loop before the next probe, even one that would succeed.
func (p Policy) poll(ctx context.Context, probe func(context.Context) (bool, error)) (time.Duration, error) {
	start := time.Now()
	deadline := start.Add(p.timeout)

	probeCtx, cancel := context.WithDeadline(ctx, deadline.Add(p.pollInterval))
	defer cancel()

	var lastFault error

	for {
		if err := ctx.Err(); err != nil {
			return time.Since(start), err
		}

		ok, err := probe(probeCtx)
		if err != nil {
			lastFault = err
		} else if ok {
			return time.Since(start), nil
		}

		now := time.Now()
		if !now.Before(deadline) {
			return now.Sub(start), &timedOut{lastFault: lastFault}
		}

		delay := p.pollInterval
		if remaining := deadline.Sub(now); remaining < delay {
			delay = remaining
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return time.Since(start), ctx.Err()
		case <-timer.C:
		}
	}
}

func (p Policy) failure(op string, cond Condition, target string, elapsed time.Duration, matches int, err error) error {
	meta := map[string]any{
		apperr.MetaStage:     apperr.StageWait,
		apperr.MetaCondition: cond.String(),
		apperr.MetaLocator:   target,
		apperr.MetaElapsedMs: elapsed.Milliseconds(),
	}

	var to *timedOut
	if !errors.As(err, &to) {
		meta[apperr.MetaReason] = "wait_cancelled"

		return apperr.Wrap(op, apperr.CodeCancelled, err, meta)
	}

	meta[apperr.MetaReason] = "deadline_exceeded"
	if matches >= 0 {
		meta[apperr.MetaMatches] = matches
	}

	return apperr.Wrap(op, apperr.CodeTimeoutExceeded, &TimeoutError{
		Condition: cond,
		Target:    target,
		Elapsed:   elapsed,
		Matches:   matches,
		Cause:     to.lastFault,
	}, meta)
}
