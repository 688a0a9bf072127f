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

package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/scalecheck-project/scalecheck/pkg/constants"
	"github.com/scalecheck-project/scalecheck/pkg/utils"
)

const (
	defaultProbeURL   = "http://localhost:8000/scaling"
	defaultNamespace  = "default"
	defaultDeployment = "identity-echo"
)

// initializeClients builds the typed clientset driving the scenarios and a
// controller-runtime client used for out-of-band validation. The suite is
// skipped when no cluster is configured.
func initializeClients(t *testing.T) (kubernetes.Interface, client.Client) {
	kubeConfig := os.Getenv("KUBECONFIG")
	if kubeConfig == "" {
		t.Skip("KUBECONFIG not set, skipping e2e scaling tests")
	}
	t.Logf("using configuration from '%s'", kubeConfig)

	config, err := clientcmd.BuildConfigFromFlags("", kubeConfig)
	if err != nil {
		t.Fatalf("Error building kubeconfig: %v", err)
	}
	k8sClient, err := kubernetes.NewForConfig(config)
	if err != nil {
		t.Fatalf("Error creating kubernetes client: %v", err)
	}
	ctrlClient, err := client.New(config, client.Options{Scheme: scheme.Scheme})
	if err != nil {
		t.Fatalf("Error creating controller-runtime client: %v", err)
	}

	return k8sClient, ctrlClient
}

// validateReadyReplicas asserts through the API server, independently of
// the verifier's own readiness reads, that the deployment reports the
// expected ready count.
func validateReadyReplicas(t *testing.T, ctrlClient client.Client, namespace, name string, expected int32) {
	g := gomega.NewWithT(t)
	g.Eventually(func(g gomega.Gomega) {
		deployment := &appsv1.Deployment{}
		err := ctrlClient.Get(context.Background(), types.NamespacedName{
			Namespace: namespace,
			Name:      name,
		}, deployment)
		g.Expect(err).ToNot(gomega.HaveOccurred())
		g.Expect(deployment.Status.ReadyReplicas).To(gomega.Equal(expected))
	}, time.Minute, 250*time.Millisecond).Should(gomega.Succeed())
}

func probeURL() string {
	return utils.LoadEnv(constants.EnvProbeURL, defaultProbeURL)
}
