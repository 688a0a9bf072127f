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

// Package sampler infers how many distinct backends answer a load-balanced
// endpoint by repeatedly probing it and collecting per-instance identity
// tokens from the responses.
//
// There is no ground truth available through the probe protocol, so the
// count is statistical: the interval/timeout pair trades confidence against
// latency. A false negative (never drawing all N backends within the budget)
// is possible under adversarial load-balancer routing and surfaces as a
// timeout with the observed count attached.
package sampler

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"github.com/scalecheck-project/scalecheck/pkg/await"
	"github.com/scalecheck-project/scalecheck/pkg/metrics"
)

// ProbeResult is one observation of the endpoint: the HTTP status and the
// identity token extracted from the response, empty when none was present.
type ProbeResult struct {
	Status   int
	Identity string
}

// Probe issues a single request against the target endpoint. Implementations
// must not reuse connections across calls, or the load balancer may pin all
// probes to one backend.
type Probe func(ctx context.Context) (ProbeResult, error)

// UnexpectedStatusError reports a probe that returned a status other than
// the one the current scenario phase requires. Terminal, never retried.
type UnexpectedStatusError struct {
	Got  int
	Want int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("probe returned status %d, want %d", e.Got, e.Want)
}

// IsUnexpectedStatus reports whether err is (or wraps) an
// UnexpectedStatusError.
func IsUnexpectedStatus(err error) bool {
	var use *UnexpectedStatusError
	return errors.As(err, &use)
}

// Config controls one sampling pass.
type Config struct {
	// SuccessStatus is the only status accepted while sampling identities.
	SuccessStatus int
	// Await sets the probe cadence and the overall deadline.
	Await await.Config
}

// SampleDistinct probes until the number of distinct identity tokens
// observed equals expected, returning the final distinct count either way.
//
// A probe with the wrong status aborts immediately with an
// UnexpectedStatusError; transport errors are retried within the deadline.
// Observing more than expected distinct tokens keeps sampling and, if the
// over-count persists, surfaces in the timeout diagnostics.
func SampleDistinct(ctx context.Context, probe Probe, expected int, cfg Config) (int, error) {
	seen := sets.New[string]()

	size, err := await.Until(ctx, func(ctx context.Context) (int, error) {
		result, err := probe(ctx)
		if err != nil {
			metrics.RecordProbeError()
			return seen.Len(), err
		}
		metrics.RecordProbe(result.Status)
		if result.Status != cfg.SuccessStatus {
			return seen.Len(), await.NonTransient(&UnexpectedStatusError{Got: result.Status, Want: cfg.SuccessStatus})
		}
		if !seen.Has(result.Identity) {
			klog.V(3).InfoS("new backend identity observed", "identity", result.Identity, "distinct", seen.Len()+1, "expected", expected)
		}
		seen.Insert(result.Identity)
		return seen.Len(), nil
	}, func(distinct int) bool { return distinct == expected }, cfg.Await)

	if err != nil {
		return size, fmt.Errorf("sampling distinct identities (expected %d, observed %d %v): %w",
			expected, seen.Len(), sets.List(seen), err)
	}
	return size, nil
}

// ExpectStatus probes until samples probes have reported exactly the given
// status, as scale-to-zero verification requires. Any probe reporting a
// different status aborts with an UnexpectedStatusError; transport errors
// are retried within the deadline, since the route may briefly refuse
// connections while the last replica is torn down.
func ExpectStatus(ctx context.Context, probe Probe, status, samples int, cfg await.Config) error {
	matched := 0
	_, err := await.Until(ctx, func(ctx context.Context) (int, error) {
		result, err := probe(ctx)
		if err != nil {
			metrics.RecordProbeError()
			return matched, err
		}
		metrics.RecordProbe(result.Status)
		if result.Status != status {
			return matched, await.NonTransient(&UnexpectedStatusError{Got: result.Status, Want: status})
		}
		matched++
		return matched, nil
	}, func(n int) bool { return n >= samples }, cfg)

	if err != nil {
		return fmt.Errorf("expecting status %d from %d probes (got %d): %w", status, samples, matched, err)
	}
	return nil
}
