// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package sched

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TimerScheduler is a Scheduler backed by the process clock. Hosts with a tick
// loop of their own supply a Scheduler of their own; TimerScheduler serves
// everyone else. Callbacks run on timer goroutines, so hosts using it must
// tolerate callbacks arriving off their dispatch thread.
type TimerScheduler struct{}

var _ Scheduler = (*TimerScheduler)(nil)

// NewTimerScheduler returns a Scheduler driven by time.AfterFunc and tickers.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

type timerHandle struct {
	once sync.Once
	stop func()
}

func (h *timerHandle) Cancel() {
	h.once.Do(h.stop)
}

// ScheduleOnce runs fn once after delay.
func (s *TimerScheduler) ScheduleOnce(_ ulid.ULID, delay time.Duration, fn func()) Handle {
	t := time.AfterFunc(delay, fn)
	return &timerHandle{stop: func() { t.Stop() }}
}

// ScheduleRepeating runs fn after initial, then every period until canceled.
func (s *TimerScheduler) ScheduleRepeating(_ ulid.ULID, initial, period time.Duration, fn func()) Handle {
	done := make(chan struct{})
	go func() {
		first := time.NewTimer(initial)
		defer first.Stop()
		select {
		case <-first.C:
			fn()
		case <-done:
			return
		}

		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	return &timerHandle{stop: func() { close(done) }}
}

// Run invokes fn inline. The process clock has no per-connection dispatch
// context, so immediate execution is the correct marshaling.
func (s *TimerScheduler) Run(_ ulid.ULID, fn func()) {
	fn()
}
