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

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalecheck_probes_total",
			Help: "Number of identity probes issued, by HTTP status.",
		},
		[]string{"status"},
	)

	probeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scalecheck_probe_errors_total",
			Help: "Number of identity probes that failed at the transport level.",
		},
	)

	distinctIdentities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scalecheck_distinct_identities",
			Help: "Distinct backend identities observed by the most recent sampling pass.",
		},
		[]string{"scenario"},
	)

	scaleRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalecheck_scale_requests_total",
			Help: "Scale commands issued to the control plane, by desired replica count.",
		},
		[]string{"replicas"},
	)

	convergenceSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scalecheck_convergence_duration_seconds",
			Help:    "Time for ready replicas to converge to the desired count.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"scenario"},
	)

	scenariosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalecheck_scenarios_total",
			Help: "Scenario outcomes, by scenario and result.",
		},
		[]string{"scenario", "result"},
	)
)

func RecordProbe(status int) {
	probesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func RecordProbeError() {
	probeErrorsTotal.Inc()
}

func SetDistinctIdentities(scenario string, count int) {
	distinctIdentities.WithLabelValues(scenario).Set(float64(count))
}

func RecordScaleRequest(replicas int32) {
	scaleRequestsTotal.WithLabelValues(strconv.Itoa(int(replicas))).Inc()
}

func ObserveConvergence(scenario string, elapsed time.Duration) {
	convergenceSeconds.WithLabelValues(scenario).Observe(elapsed.Seconds())
}

func RecordScenario(scenario string, passed bool) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	scenariosTotal.WithLabelValues(scenario, result).Inc()
}
