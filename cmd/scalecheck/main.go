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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/scalecheck-project/scalecheck/pkg/controlplane"
	"github.com/scalecheck-project/scalecheck/pkg/metrics"
	"github.com/scalecheck-project/scalecheck/pkg/scenario"
)

var (
	kubeconfig  string
	metricsAddr string
)

func main() {
	cfg := scenario.ConfigFromEnv()

	flag.StringVar(&kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"),
		"Path to a kubeconfig. Empty means in-cluster configuration.")
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080",
		"The address the metric endpoint binds to.")
	flag.StringVar(&cfg.Target.Namespace, "namespace", cfg.Target.Namespace,
		"Namespace of the deployment under test.")
	flag.StringVar(&cfg.Target.Name, "target", cfg.Target.Name,
		"Name of the deployment under test.")
	flag.StringVar(&cfg.ProbeURL, "probe-url", cfg.ProbeURL,
		"Load-balanced URL that echoes a backend identity token.")
	flag.DurationVar(&cfg.ProbeInterval, "probe-interval", cfg.ProbeInterval,
		"Delay between identity probes while sampling.")
	flag.DurationVar(&cfg.ReadinessInterval, "readiness-interval", cfg.ReadinessInterval,
		"Delay between ready-replica reads while waiting for convergence.")
	flag.DurationVar(&cfg.HealthInterval, "health-interval", cfg.HealthInterval,
		"Delay between probes of the initial health gate.")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout,
		"Budget for each convergence wait and sampling pass.")
	flag.IntVar(&cfg.ZeroSamples, "zero-samples", cfg.ZeroSamples,
		"Probes that must report the unavailable status to pass scale-to-zero.")
	klog.InitFlags(flag.CommandLine)
	defer klog.Flush()
	flag.Parse()

	var config *rest.Config
	var err error
	if kubeconfig == "" {
		klog.Info("using in-cluster configuration")
		config, err = rest.InClusterConfig()
	} else {
		klog.Infof("using configuration from '%s'", kubeconfig)
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		klog.Fatalf("Error building kubeconfig: %v", err)
	}

	k8sClient, err := kubernetes.NewForConfig(config)
	if err != nil {
		klog.Fatalf("Error creating kubernetes client: %v", err)
	}

	runner, err := scenario.NewRunner(controlplane.NewDeploymentScaler(k8sClient), nil, cfg)
	if err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}

	metricsServer := metrics.NewServer(metricsAddr)
	if err := metricsServer.Start(); err != nil {
		klog.Fatalf("Failed to start metrics server: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := runner.Run(ctx)
	if err := metricsServer.Stop(); err != nil {
		klog.ErrorS(err, "Failed to stop metrics server")
	}

	if runErr != nil {
		klog.ErrorS(runErr, "scaling verification failed", "target", cfg.Target.String())
		klog.Flush()
		os.Exit(1)
	}
	klog.InfoS("scaling verification passed", "target", cfg.Target.String())
}
