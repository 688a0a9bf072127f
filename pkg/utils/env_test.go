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

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("SCALECHECK_TEST_STRING", "value")
	assert.Equal(t, "value", LoadEnv("SCALECHECK_TEST_STRING", "default"))
	assert.Equal(t, "default", LoadEnv("SCALECHECK_TEST_MISSING", "default"))

	t.Setenv("SCALECHECK_TEST_EMPTY", "")
	assert.Equal(t, "default", LoadEnv("SCALECHECK_TEST_EMPTY", "default"))
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("SCALECHECK_TEST_BOOL", "true")
	assert.True(t, LoadEnvBool("SCALECHECK_TEST_BOOL", false))

	t.Setenv("SCALECHECK_TEST_BOOL", "not-a-bool")
	assert.False(t, LoadEnvBool("SCALECHECK_TEST_BOOL", false))

	assert.True(t, LoadEnvBool("SCALECHECK_TEST_BOOL_MISSING", true))
}

func TestLoadEnvInt(t *testing.T) {
	t.Setenv("SCALECHECK_TEST_INT", "42")
	assert.Equal(t, 42, LoadEnvInt("SCALECHECK_TEST_INT", 7))

	t.Setenv("SCALECHECK_TEST_INT", "forty-two")
	assert.Equal(t, 7, LoadEnvInt("SCALECHECK_TEST_INT", 7))

	assert.Equal(t, 7, LoadEnvInt("SCALECHECK_TEST_INT_MISSING", 7))
}

func TestLoadEnvDuration(t *testing.T) {
	t.Setenv("SCALECHECK_TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, LoadEnvDuration("SCALECHECK_TEST_DURATION", time.Second))

	t.Setenv("SCALECHECK_TEST_DURATION", "soon")
	assert.Equal(t, time.Second, LoadEnvDuration("SCALECHECK_TEST_DURATION", time.Second))

	assert.Equal(t, time.Second, LoadEnvDuration("SCALECHECK_TEST_DURATION_MISSING", time.Second))
}
