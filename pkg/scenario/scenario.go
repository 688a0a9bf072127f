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

// Package scenario composes the control-plane wrapper, the convergence
// waiter and the identity sampler into the three ordered scaling
// verification scenarios: scale-up, scale-down and scale-to-zero.
//
// The scenarios share one deployable unit and are not safe to run in
// parallel against the same target; Run executes them strictly in order and
// scales the target back to one replica after each.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/klog/v2"

	"github.com/scalecheck-project/scalecheck/pkg/await"
	"github.com/scalecheck-project/scalecheck/pkg/constants"
	"github.com/scalecheck-project/scalecheck/pkg/controlplane"
	"github.com/scalecheck-project/scalecheck/pkg/metrics"
	"github.com/scalecheck-project/scalecheck/pkg/sampler"
	"github.com/scalecheck-project/scalecheck/pkg/utils"
)

// Scenario names, also used as metric label values.
const (
	NameScaleUp     = "scale-up"
	NameScaleDown   = "scale-down"
	NameScaleToZero = "scale-to-zero"
)

// Config holds everything the runner needs to verify one scale target.
type Config struct {
	// Target is the deployable unit whose replica count is driven.
	Target controlplane.ScaleTarget
	// ProbeURL is the load-balanced endpoint that echoes backend identity.
	ProbeURL string

	// SuccessStatus is the status a serving replica answers with.
	SuccessStatus int
	// UnavailableStatus is the status expected once no replicas remain.
	UnavailableStatus int

	// ProbeInterval spaces identity probes during sampling.
	ProbeInterval time.Duration
	// ReadinessInterval spaces ready-replica reads while converging.
	ReadinessInterval time.Duration
	// HealthInterval spaces the slower initial health-gate probes.
	HealthInterval time.Duration
	// Timeout bounds each individual wait, not the whole run.
	Timeout time.Duration

	// ZeroSamples is how many probes must report UnavailableStatus to pass
	// scale-to-zero.
	ZeroSamples int
}

// ConfigFromEnv builds a Config from SCALECHECK_* environment variables,
// with the documented defaults for anything unset.
func ConfigFromEnv() Config {
	return Config{
		Target: controlplane.ScaleTarget{
			Namespace: utils.LoadEnv(constants.EnvTargetNamespace, "default"),
			Name:      utils.LoadEnv(constants.EnvTargetName, ""),
		},
		ProbeURL:          utils.LoadEnv(constants.EnvProbeURL, ""),
		SuccessStatus:     200,
		UnavailableStatus: 503,
		ProbeInterval:     utils.LoadEnvDuration(constants.EnvProbeInterval, constants.DefaultProbeInterval),
		ReadinessInterval: utils.LoadEnvDuration(constants.EnvReadinessInterval, constants.DefaultReadinessInterval),
		HealthInterval:    utils.LoadEnvDuration(constants.EnvHealthInterval, constants.DefaultHealthInterval),
		Timeout:           utils.LoadEnvDuration(constants.EnvTimeout, constants.DefaultTimeout),
		ZeroSamples:       constants.DefaultZeroSamples,
	}
}

// Validate rejects configurations the runner cannot execute.
func (c Config) Validate() error {
	if c.Target.Namespace == "" || c.Target.Name == "" {
		return fmt.Errorf("scale target must name a namespace and a deployment, got %q", c.Target.String())
	}
	if _, err := url.ParseRequestURI(c.ProbeURL); err != nil {
		return fmt.Errorf("invalid probe URL %q: %w", c.ProbeURL, err)
	}
	if c.ProbeInterval <= 0 || c.ReadinessInterval <= 0 || c.HealthInterval <= 0 {
		return fmt.Errorf("probe, readiness and health intervals must be positive")
	}
	if c.Timeout <= c.ProbeInterval || c.Timeout <= c.ReadinessInterval || c.Timeout <= c.HealthInterval {
		return fmt.Errorf("timeout %s must exceed every polling interval", c.Timeout)
	}
	if c.SuccessStatus == c.UnavailableStatus {
		return fmt.Errorf("success and unavailable statuses must differ, both are %d", c.SuccessStatus)
	}
	if c.ZeroSamples <= 0 {
		return fmt.Errorf("zero-samples must be positive, got %d", c.ZeroSamples)
	}
	return nil
}

// Runner executes the scaling scenarios against one target.
type Runner struct {
	scaler controlplane.Scaler
	probe  sampler.Probe
	cfg    Config
}

// NewRunner validates the config and builds a runner. A nil probe defaults
// to an HTTP prober for cfg.ProbeURL with body-derived identities.
func NewRunner(scaler controlplane.Scaler, probe sampler.Probe, cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if probe == nil {
		probe = sampler.NewHTTPProber(cfg.ProbeURL, nil).Probe
	}
	return &Runner{scaler: scaler, probe: probe, cfg: cfg}, nil
}

// Run executes scale-up, scale-down and scale-to-zero in that order,
// scaling the target back to one replica after each scenario whether it
// passed or not, and stops at the first failure.
func (r *Runner) Run(ctx context.Context) error {
	scenarios := []struct {
		name string
		fn   func(context.Context) error
	}{
		{NameScaleUp, r.ScaleUp},
		{NameScaleDown, r.ScaleDown},
		{NameScaleToZero, r.ScaleToZero},
	}

	for _, s := range scenarios {
		klog.InfoS("running scenario", "scenario", s.name, "target", r.cfg.Target.String())
		err := s.fn(ctx)
		metrics.RecordScenario(s.name, err == nil)
		if resetErr := r.Reset(ctx); resetErr != nil {
			if err == nil {
				err = resetErr
			} else {
				klog.ErrorS(resetErr, "failed to reset target after scenario", "scenario", s.name)
			}
		}
		if err != nil {
			return fmt.Errorf("scenario %s: %w", s.name, err)
		}
		klog.InfoS("scenario passed", "scenario", s.name)
	}
	return nil
}

// ScaleUp verifies the single replica is serving, scales to two, waits for
// convergence and confirms two distinct backends answer probes.
func (r *Runner) ScaleUp(ctx context.Context) error {
	if err := r.awaitReady(ctx, NameScaleUp, 1, r.cfg.HealthInterval); err != nil {
		return err
	}
	if err := r.healthGate(ctx); err != nil {
		return err
	}

	if err := r.scaleTo(ctx, 2); err != nil {
		return err
	}
	if err := r.awaitReady(ctx, NameScaleUp, 2, r.cfg.ReadinessInterval); err != nil {
		return err
	}
	return r.sampleDistinct(ctx, NameScaleUp, 2)
}

// ScaleDown verifies two replicas are serving, scales down to one and
// confirms every probe in the sampling window is answered by the same
// backend.
func (r *Runner) ScaleDown(ctx context.Context) error {
	if err := r.scaleTo(ctx, 2); err != nil {
		return err
	}
	if err := r.awaitReady(ctx, NameScaleDown, 2, r.cfg.ReadinessInterval); err != nil {
		return err
	}
	if err := r.sampleDistinct(ctx, NameScaleDown, 2); err != nil {
		return err
	}

	if err := r.scaleTo(ctx, 1); err != nil {
		return err
	}
	if err := r.awaitReady(ctx, NameScaleDown, 1, r.cfg.ReadinessInterval); err != nil {
		return err
	}
	return r.sampleDistinct(ctx, NameScaleDown, 1)
}

// ScaleToZero scales the target to zero replicas and confirms every probe
// reports the unavailable status.
func (r *Runner) ScaleToZero(ctx context.Context) error {
	if err := r.scaleTo(ctx, 0); err != nil {
		return err
	}
	if err := r.awaitReady(ctx, NameScaleToZero, 0, r.cfg.ReadinessInterval); err != nil {
		return err
	}

	return sampler.ExpectStatus(ctx, r.probe, r.cfg.UnavailableStatus, r.cfg.ZeroSamples,
		await.Config{Interval: r.cfg.ProbeInterval, Timeout: r.cfg.Timeout})
}

// Reset scales the target back to a single replica.
func (r *Runner) Reset(ctx context.Context) error {
	return r.scaleTo(ctx, 1)
}

func (r *Runner) scaleTo(ctx context.Context, replicas int32) error {
	if err := r.scaler.ScaleTo(ctx, r.cfg.Target, replicas); err != nil {
		return err
	}
	metrics.RecordScaleRequest(replicas)
	return nil
}

// awaitReady polls the control plane until the ready replica count matches
// want. Read failures are retried within the deadline unless the target
// itself is gone.
func (r *Runner) awaitReady(ctx context.Context, name string, want int32, interval time.Duration) error {
	start := time.Now()
	ready, err := await.Until(ctx, func(ctx context.Context) (int32, error) {
		n, err := r.scaler.ReadyReplicas(ctx, r.cfg.Target)
		if err != nil {
			if isMissingTarget(err) {
				return 0, await.NonTransient(err)
			}
			return 0, err
		}
		return n, nil
	}, func(n int32) bool { return n == want }, await.Config{Interval: interval, Timeout: r.cfg.Timeout})
	if err != nil {
		return fmt.Errorf("waiting for %d ready replicas (last observed %d): %w", want, ready, err)
	}

	metrics.ObserveConvergence(name, time.Since(start))
	klog.V(2).InfoS("replicas converged", "target", r.cfg.Target.String(), "ready", ready, "elapsed", time.Since(start))
	return nil
}

// healthGate probes the endpoint at the slow cadence until it answers with
// the success status, gating the first scenario on a serving replica.
func (r *Runner) healthGate(ctx context.Context) error {
	_, err := await.Until(ctx, func(ctx context.Context) (sampler.ProbeResult, error) {
		result, err := r.probe(ctx)
		if err != nil {
			return sampler.ProbeResult{}, err
		}
		klog.V(3).InfoS("health gate probe", "status", result.Status, "identity", result.Identity)
		return result, nil
	}, func(result sampler.ProbeResult) bool {
		return result.Status == r.cfg.SuccessStatus
	}, await.Config{Interval: r.cfg.HealthInterval, Timeout: r.cfg.Timeout})
	if err != nil {
		return fmt.Errorf("health gate on %s: %w", r.cfg.ProbeURL, err)
	}
	return nil
}

func (r *Runner) sampleDistinct(ctx context.Context, name string, expected int) error {
	count, err := sampler.SampleDistinct(ctx, r.probe, expected, sampler.Config{
		SuccessStatus: r.cfg.SuccessStatus,
		Await:         await.Config{Interval: r.cfg.ProbeInterval, Timeout: r.cfg.Timeout},
	})
	metrics.SetDistinctIdentities(name, count)
	return err
}

// isMissingTarget reports whether a replica read failed because the target
// does not exist, which no amount of waiting will fix.
func isMissingTarget(err error) bool {
	var cpe *controlplane.ControlPlaneError
	if errors.As(err, &cpe) {
		return apierrors.IsNotFound(cpe.Err)
	}
	return apierrors.IsNotFound(err)
}
