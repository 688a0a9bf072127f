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

package constants

import "time"

// Environment variables understood by the scalecheck binaries. Flags take
// precedence; these exist so the verifier can be configured from a pod spec
// without templating its args.
const (
	EnvTargetNamespace   = "SCALECHECK_TARGET_NAMESPACE"
	EnvTargetName        = "SCALECHECK_TARGET_NAME"
	EnvProbeURL          = "SCALECHECK_PROBE_URL"
	EnvProbeInterval     = "SCALECHECK_PROBE_INTERVAL"
	EnvReadinessInterval = "SCALECHECK_READINESS_INTERVAL"
	EnvHealthInterval    = "SCALECHECK_HEALTH_INTERVAL"
	EnvTimeout           = "SCALECHECK_TIMEOUT"

	// EnvIdentity overrides the token served by identity-echo. Normally unset;
	// the server falls back to the pod hostname.
	EnvIdentity = "SCALECHECK_IDENTITY"
)

// Defaults mirror the verification constants the scaling workflows were
// tuned with: a tight delay between identity probes, a slower cadence for
// the initial health gate, and a single budget for every wait.
const (
	DefaultProbeInterval     = 100 * time.Millisecond
	DefaultReadinessInterval = 100 * time.Millisecond
	DefaultHealthInterval    = 1 * time.Second
	DefaultTimeout           = 60 * time.Second

	// DefaultZeroSamples is how many consecutive probes must report the
	// unavailable status before scale-to-zero is considered verified.
	DefaultZeroSamples = 10
)
