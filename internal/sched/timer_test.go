// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package sched_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/gateward/gateward/internal/sched"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTimerScheduler_ScheduleOnce(t *testing.T) {
	t.Run("fires after the delay", func(t *testing.T) {
		s := sched.NewTimerScheduler()
		fired := make(chan struct{})

		s.ScheduleOnce(ulid.Make(), 5*time.Millisecond, func() { close(fired) })

		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("callback never fired")
		}
	})

	t.Run("cancel before the delay suppresses the callback", func(t *testing.T) {
		s := sched.NewTimerScheduler()
		var fired atomic.Bool

		h := s.ScheduleOnce(ulid.Make(), 50*time.Millisecond, func() { fired.Store(true) })
		h.Cancel()

		time.Sleep(100 * time.Millisecond)
		assert.False(t, fired.Load())
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		s := sched.NewTimerScheduler()

		h := s.ScheduleOnce(ulid.Make(), time.Hour, func() {})
		h.Cancel()
		h.Cancel()
	})
}

func TestTimerScheduler_ScheduleRepeating(t *testing.T) {
	t.Run("fires repeatedly until canceled", func(t *testing.T) {
		s := sched.NewTimerScheduler()
		var count atomic.Int64

		h := s.ScheduleRepeating(ulid.Make(), 5*time.Millisecond, 5*time.Millisecond, func() {
			count.Add(1)
		})

		assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, time.Millisecond)

		h.Cancel()
		settled := count.Load()
		time.Sleep(50 * time.Millisecond)
		assert.LessOrEqual(t, count.Load(), settled+1)
	})

	t.Run("cancel before the first fire suppresses everything", func(t *testing.T) {
		s := sched.NewTimerScheduler()
		var count atomic.Int64

		h := s.ScheduleRepeating(ulid.Make(), 50*time.Millisecond, 50*time.Millisecond, func() {
			count.Add(1)
		})
		h.Cancel()

		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, count.Load())
	})
}

func TestTimerScheduler_Run(t *testing.T) {
	t.Run("invokes the callback inline", func(t *testing.T) {
		s := sched.NewTimerScheduler()
		ran := false

		s.Run(ulid.Make(), func() { ran = true })

		assert.True(t, ran)
	})
}
