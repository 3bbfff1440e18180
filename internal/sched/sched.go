// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package sched defines the scheduling contract the authentication engine
// requires from its host, plus a timer-backed default implementation.
//
// The host dispatches per-connection events on execution contexts affine to
// that connection. Callbacks scheduled through this package fire on the
// owning connection's context, so they are safe to mutate that connection's
// visible state.
package sched

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Handle is a cancelable scheduled task. Cancel is idempotent: canceling an
// already-canceled or already-fired task is a safe no-op.
type Handle interface {
	Cancel()
}

// Scheduler schedules callbacks bound to a connection's execution context.
type Scheduler interface {
	// ScheduleOnce runs fn once after delay.
	ScheduleOnce(id ulid.ULID, delay time.Duration, fn func()) Handle

	// ScheduleRepeating runs fn after initial, then every period.
	ScheduleRepeating(id ulid.ULID, initial, period time.Duration, fn func()) Handle

	// Run marshals fn onto the connection's execution context. Used by
	// asynchronous continuations before they touch connection-visible state.
	Run(id ulid.ULID, fn func())
}
