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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scalecheck-project/scalecheck/pkg/constants"
	"github.com/scalecheck-project/scalecheck/pkg/controlplane"
	"github.com/scalecheck-project/scalecheck/pkg/scenario"
	"github.com/scalecheck-project/scalecheck/pkg/utils"
)

// TestScalingScenarios drives an identity-echo deployment through the three
// scaling scenarios against a real cluster. The deployment and the
// load-balanced route to it must exist before running; see
// deployment/identity-echo.yaml.
//
// The sub-scenarios share the deployment and must run in order; none of
// them are parallelizable.
func TestScalingScenarios(t *testing.T) {
	k8sClient, ctrlClient := initializeClients(t)

	target := controlplane.ScaleTarget{
		Namespace: utils.LoadEnv(constants.EnvTargetNamespace, defaultNamespace),
		Name:      utils.LoadEnv(constants.EnvTargetName, defaultDeployment),
	}
	cfg := scenario.ConfigFromEnv()
	cfg.Target = target
	cfg.ProbeURL = probeURL()

	scaler := controlplane.NewDeploymentScaler(k8sClient)
	runner, err := scenario.NewRunner(scaler, nil, cfg)
	require.NoError(t, err)

	ctx := context.Background()
	t.Cleanup(func() {
		if err := runner.Reset(ctx); err != nil {
			t.Logf("failed to reset %s to one replica: %v", target, err)
		}
	})

	t.Run("scale-up", func(t *testing.T) {
		require.NoError(t, runner.ScaleUp(ctx))
		validateReadyReplicas(t, ctrlClient, target.Namespace, target.Name, 2)
		require.NoError(t, runner.Reset(ctx))
		validateReadyReplicas(t, ctrlClient, target.Namespace, target.Name, 1)
	})

	t.Run("scale-down", func(t *testing.T) {
		require.NoError(t, runner.ScaleDown(ctx))
		validateReadyReplicas(t, ctrlClient, target.Namespace, target.Name, 1)
		require.NoError(t, runner.Reset(ctx))
	})

	t.Run("scale-to-zero", func(t *testing.T) {
		require.NoError(t, runner.ScaleToZero(ctx))
		validateReadyReplicas(t, ctrlClient, target.Namespace, target.Name, 0)
		require.NoError(t, runner.Reset(ctx))
		validateReadyReplicas(t, ctrlClient, target.Namespace, target.Name, 1)
	})
}
