/*
Copyright 2025 The Scalecheck Team.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package await implements bounded polling until a condition holds.
//
// It is the convergence primitive underneath the scaling scenarios: poll a
// value, test a predicate, sleep an interval, give up at a deadline. Unlike
// wait.PollUntilContextTimeout the result is returned to the caller, and a
// timeout carries the last observed value for diagnostics.
package await

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

// Config controls one wait. Zero intervals or timeouts are rejected by
// Until rather than defaulted; callers own their cadence.
type Config struct {
	// Interval is the delay between poll attempts.
	Interval time.Duration
	// Timeout bounds the whole wait, first poll included.
	Timeout time.Duration
	// Clock is overridable for tests. Nil means the real clock.
	Clock clock.Clock
}

// TimeoutError reports that the condition never held within the budget.
// LastValue is whatever the final successful poll produced; LastErr is the
// final poll error, if the poll itself was failing at expiry.
type TimeoutError struct {
	Timeout   time.Duration
	LastValue any
	LastErr   error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("condition not met after %s, last poll error: %v", e.Timeout, e.LastErr)
	}
	return fmt.Sprintf("condition not met after %s, last observed value: %v", e.Timeout, e.LastValue)
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

type nonTransientError struct {
	err error
}

func (e *nonTransientError) Error() string { return e.err.Error() }
func (e *nonTransientError) Unwrap() error { return e.err }

// NonTransient marks a poll error as fatal to the wait. Everything else
// returned by a poll is treated as "not yet" and retried until the deadline.
func NonTransient(err error) error {
	if err == nil {
		return nil
	}
	return &nonTransientError{err: err}
}

// IsNonTransient reports whether err was marked with NonTransient.
func IsNonTransient(err error) bool {
	var nte *nonTransientError
	return errors.As(err, &nte)
}

// Until polls until done returns true for a polled value, then returns that
// value. Poll errors are swallowed and retried unless marked NonTransient.
// On deadline or context cancellation the error is a *TimeoutError carrying
// the last observed value.
func Until[T any](ctx context.Context, poll func(context.Context) (T, error), done func(T) bool, cfg Config) (T, error) {
	var last T
	if cfg.Interval <= 0 || cfg.Timeout <= 0 {
		return last, NonTransient(fmt.Errorf("await: interval (%s) and timeout (%s) must be positive", cfg.Interval, cfg.Timeout))
	}
	c := cfg.Clock
	if c == nil {
		c = clock.RealClock{}
	}

	deadline := c.Now().Add(cfg.Timeout)
	var lastErr error
	for {
		value, err := poll(ctx)
		switch {
		case err == nil:
			last = value
			lastErr = nil
			if done(value) {
				return value, nil
			}
			klog.V(4).InfoS("condition not met yet", "observed", value)
		case IsNonTransient(err):
			return last, err
		default:
			// Transient failures (e.g. connection refused mid scale
			// transition) count as "not yet".
			lastErr = err
			klog.V(4).InfoS("poll failed, retrying", "err", err)
		}

		if !c.Now().Add(cfg.Interval).Before(deadline) {
			return last, &TimeoutError{Timeout: cfg.Timeout, LastValue: last, LastErr: lastErr}
		}
		select {
		case <-ctx.Done():
			return last, &TimeoutError{Timeout: cfg.Timeout, LastValue: last, LastErr: ctx.Err()}
		case <-c.After(cfg.Interval):
		}
	}
}
