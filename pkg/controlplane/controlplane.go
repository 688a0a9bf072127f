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

// Package controlplane wraps the orchestrator's scale and readiness APIs.
//
// The verifier never creates or destroys replicas itself; it only asks the
// control plane to do so and reads back how many are ready.
package controlplane

import (
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"
	"k8s.io/klog/v2"
)

// ScaleTarget identifies the deployable unit being scaled. It is an opaque
// handle from the scenarios' point of view; this implementation binds it to
// a Deployment.
type ScaleTarget struct {
	Namespace string
	Name      string
}

func (t ScaleTarget) String() string {
	return t.Namespace + "/" + t.Name
}

// ControlPlaneError reports a failed scale command or readiness read at the
// transport/API level. It is never retried by this layer.
type ControlPlaneError struct {
	Op     string
	Target ScaleTarget
	Err    error
}

func (e *ControlPlaneError) Error() string {
	return fmt.Sprintf("control plane %s on %s: %v", e.Op, e.Target, e.Err)
}

func (e *ControlPlaneError) Unwrap() error { return e.Err }

// IsControlPlaneError reports whether err is (or wraps) a ControlPlaneError.
func IsControlPlaneError(err error) bool {
	var cpe *ControlPlaneError
	return errors.As(err, &cpe)
}

// Scaler drives and observes the replica count of a scale target. Every call
// is stateless and side-effecting against the external control plane.
type Scaler interface {
	// ScaleTo requests the desired replica count. It returns once the
	// control plane accepts the request, not once replicas are ready.
	ScaleTo(ctx context.Context, target ScaleTarget, replicas int32) error
	// ReadyReplicas reads the current ready replica count.
	ReadyReplicas(ctx context.Context, target ScaleTarget) (int32, error)
}

type deploymentScaler struct {
	client kubernetes.Interface
}

// NewDeploymentScaler returns a Scaler backed by the apps/v1 scale
// subresource of a Deployment.
func NewDeploymentScaler(client kubernetes.Interface) Scaler {
	return &deploymentScaler{client: client}
}

func (s *deploymentScaler) ScaleTo(ctx context.Context, target ScaleTarget, replicas int32) error {
	if replicas < 0 {
		return &ControlPlaneError{Op: "scale", Target: target, Err: fmt.Errorf("replica count must be non-negative, got %d", replicas)}
	}

	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		scale, err := s.client.AppsV1().Deployments(target.Namespace).GetScale(ctx, target.Name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		if scale.Spec.Replicas == replicas {
			return nil
		}
		scale.Spec.Replicas = replicas
		_, err = s.client.AppsV1().Deployments(target.Namespace).UpdateScale(ctx, target.Name, scale, metav1.UpdateOptions{})
		return err
	})
	if err != nil {
		return &ControlPlaneError{Op: "scale", Target: target, Err: err}
	}

	klog.V(2).InfoS("requested scale", "target", target.String(), "replicas", replicas)
	return nil
}

func (s *deploymentScaler) ReadyReplicas(ctx context.Context, target ScaleTarget) (int32, error) {
	deployment, err := s.client.AppsV1().Deployments(target.Namespace).Get(ctx, target.Name, metav1.GetOptions{})
	if err != nil {
		return 0, &ControlPlaneError{Op: "ready-replicas", Target: target, Err: err}
	}
	klog.V(4).InfoS("read ready replicas", "target", target.String(), "ready", deployment.Status.ReadyReplicas)
	return deployment.Status.ReadyReplicas, nil
}
