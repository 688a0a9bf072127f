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

package await

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func TestUntilImmediateSuccess(t *testing.T) {
	calls := 0
	value, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 3, nil
	}, func(v int) bool { return v == 3 }, Config{Interval: time.Millisecond, Timeout: time.Second})

	require.NoError(t, err)
	assert.Equal(t, 3, value)
	assert.Equal(t, 1, calls)
}

func TestUntilEventualSuccess(t *testing.T) {
	calls := 0
	value, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}, func(v int) bool { return v >= 4 }, Config{Interval: time.Millisecond, Timeout: 10 * time.Second})

	require.NoError(t, err)
	assert.Equal(t, 4, value)
	assert.Equal(t, 4, calls)
}

// stepClock advances a fake clock from the background so that waits on
// Clock.After make progress without real sleeping.
func stepClock(t *testing.T, fc *testingclock.FakeClock, step time.Duration) {
	t.Helper()
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				fc.Step(step)
				time.Sleep(time.Millisecond)
			}
		}
	}()
}

func TestUntilTimeoutCarriesLastValue(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	stepClock(t, fc, time.Second)

	var observed atomic.Int64
	_, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		return int(observed.Add(1)), nil
	}, func(v int) bool { return false }, Config{Interval: 100 * time.Millisecond, Timeout: 30 * time.Second, Clock: fc})

	require.Error(t, err)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, int(observed.Load()), te.LastValue)
	assert.True(t, IsTimeout(err))
}

func TestUntilSwallowsTransientPollErrors(t *testing.T) {
	calls := 0
	value, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 7, nil
	}, func(v int) bool { return v == 7 }, Config{Interval: time.Millisecond, Timeout: 10 * time.Second})

	require.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.Equal(t, 3, calls)
}

func TestUntilTimeoutCarriesLastPollError(t *testing.T) {
	pollErr := errors.New("connection refused")
	_, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		return 0, pollErr
	}, func(v int) bool { return true }, Config{Interval: time.Millisecond, Timeout: 30 * time.Millisecond})

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, te.LastErr, pollErr)
}

func TestUntilNonTransientErrorAborts(t *testing.T) {
	calls := 0
	fatal := errors.New("no such deployment")
	_, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, NonTransient(fatal)
	}, func(v int) bool { return true }, Config{Interval: time.Millisecond, Timeout: 10 * time.Second})

	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
	assert.True(t, IsNonTransient(err))
	assert.False(t, IsTimeout(err))
	assert.Equal(t, 1, calls)
}

func TestUntilContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, err := Until(ctx, func(ctx context.Context) (int, error) {
		cancel()
		return 1, nil
	}, func(v int) bool { return false }, Config{Interval: 10 * time.Millisecond, Timeout: 10 * time.Second})

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, te.LastErr, context.Canceled)
}

func TestUntilRejectsZeroConfig(t *testing.T) {
	_, err := Until(context.Background(), func(ctx context.Context) (int, error) {
		return 0, nil
	}, func(v int) bool { return true }, Config{})

	require.Error(t, err)
	assert.True(t, IsNonTransient(err))
}
