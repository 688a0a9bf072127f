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
	"os"
	"strconv"
	"time"

	"k8s.io/klog/v2"
)

// LoadEnv returns the value of the environment variable or the default when
// unset or empty.
func LoadEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvBool parses the environment variable as a bool, falling back to the
// default on absence or parse failure.
func LoadEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		klog.Warningf("invalid bool value %q for %s, using default %v", value, key, defaultValue)
		return defaultValue
	}
	return parsed
}

// LoadEnvInt parses the environment variable as an int, falling back to the
// default on absence or parse failure.
func LoadEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		klog.Warningf("invalid int value %q for %s, using default %d", value, key, defaultValue)
		return defaultValue
	}
	return parsed
}

// LoadEnvDuration parses the environment variable with time.ParseDuration,
// falling back to the default on absence or parse failure.
func LoadEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		klog.Warningf("invalid duration value %q for %s, using default %s", value, key, defaultValue)
		return defaultValue
	}
	return parsed
}
