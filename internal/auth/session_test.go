// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/auth"
	"github.com/gateward/gateward/internal/world"
)

// fakeHandle counts how often it was canceled.
type fakeHandle struct {
	cancels atomic.Int64
}

func (h *fakeHandle) Cancel() { h.cancels.Add(1) }

var joinPos = world.Position{World: "world", X: 1, Y: 64, Z: 1}

func TestRegistry_ConnectDisconnect(t *testing.T) {
	t.Run("connected sessions are live and unauthenticated", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()

		r.OnConnect(id, "alice", "203.0.113.9", joinPos)

		assert.True(t, r.Live(id))
		assert.False(t, r.IsAuthenticated(id))
		assert.Equal(t, 1, r.UnauthenticatedCount())

		name, ok := r.Name(id)
		require.True(t, ok)
		assert.Equal(t, "alice", name)

		addr, ok := r.Addr(id)
		require.True(t, ok)
		assert.Equal(t, "203.0.113.9", addr)
	})

	t.Run("disconnect removes the session and reports auth state", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		acct := ulid.Make()

		r.OnConnect(id, "alice", "", joinPos)
		r.SetAccount(id, acct)
		require.True(t, r.Authenticate(id))

		gotAcct, wasAuth := r.OnDisconnect(id)
		assert.True(t, wasAuth)
		assert.Equal(t, acct, gotAcct)
		assert.False(t, r.Live(id))
	})

	t.Run("disconnect is idempotent", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()

		r.OnConnect(id, "alice", "", joinPos)
		r.Authenticate(id)
		r.OnDisconnect(id)

		_, wasAuth := r.OnDisconnect(id)
		assert.False(t, wasAuth)
	})

	t.Run("disconnect cancels scheduled tasks", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		reminder := &fakeHandle{}
		timeout := &fakeHandle{}

		r.OnConnect(id, "alice", "", joinPos)
		r.SetReminder(id, reminder)
		r.SetTimeout(id, timeout)
		r.OnDisconnect(id)

		assert.Equal(t, int64(1), reminder.cancels.Load())
		assert.Equal(t, int64(1), timeout.cancels.Load())
	})

	t.Run("reconnecting resets the session to unauthenticated", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		reminder := &fakeHandle{}

		r.OnConnect(id, "alice", "", joinPos)
		r.SetReminder(id, reminder)
		r.Authenticate(id)

		r.OnConnect(id, "alice", "", joinPos)

		assert.False(t, r.IsAuthenticated(id))
		assert.Equal(t, int64(1), reminder.cancels.Load(), "old session's tasks are canceled")
	})
}

func TestRegistry_Authenticate(t *testing.T) {
	t.Run("authenticates a live session once", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		r.OnConnect(id, "alice", "", joinPos)

		assert.True(t, r.Authenticate(id))
		assert.True(t, r.IsAuthenticated(id))
		assert.False(t, r.Authenticate(id), "second authenticate reports false")
	})

	t.Run("authenticating an unknown session fails", func(t *testing.T) {
		r := auth.NewRegistry()
		assert.False(t, r.Authenticate(ulid.Make()))
	})

	t.Run("authenticating cancels reminder and timeout", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		reminder := &fakeHandle{}
		timeout := &fakeHandle{}

		r.OnConnect(id, "alice", "", joinPos)
		r.SetReminder(id, reminder)
		r.SetTimeout(id, timeout)
		r.Authenticate(id)

		assert.Equal(t, int64(1), reminder.cancels.Load())
		assert.Equal(t, int64(1), timeout.cancels.Load())
	})

	t.Run("concurrent authenticates succeed exactly once", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		r.OnConnect(id, "alice", "", joinPos)

		var wins atomic.Int64
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if r.Authenticate(id) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), wins.Load())
	})
}

func TestRegistry_FailedAttempts(t *testing.T) {
	t.Run("counts attempts per session", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		r.OnConnect(id, "alice", "", joinPos)

		assert.Equal(t, 1, r.RecordFailedAttempt(id))
		assert.Equal(t, 2, r.RecordFailedAttempt(id))
	})

	t.Run("unknown sessions count zero", func(t *testing.T) {
		r := auth.NewRegistry()
		assert.Equal(t, 0, r.RecordFailedAttempt(ulid.Make()))
	})

	t.Run("counter resets on reconnect", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		r.OnConnect(id, "alice", "", joinPos)
		r.RecordFailedAttempt(id)
		r.RecordFailedAttempt(id)

		r.OnConnect(id, "alice", "", joinPos)
		assert.Equal(t, 1, r.RecordFailedAttempt(id))
	})
}

func TestRegistry_Tasks(t *testing.T) {
	t.Run("replacing a task cancels the previous one", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		first := &fakeHandle{}
		second := &fakeHandle{}

		r.OnConnect(id, "alice", "", joinPos)
		r.SetReminder(id, first)
		r.SetReminder(id, second)

		assert.Equal(t, int64(1), first.cancels.Load())
		assert.Equal(t, int64(0), second.cancels.Load())
	})

	t.Run("attaching a task to a vanished session cancels it immediately", func(t *testing.T) {
		r := auth.NewRegistry()
		h := &fakeHandle{}

		r.SetTimeout(ulid.Make(), h)

		assert.Equal(t, int64(1), h.cancels.Load())
	})
}

func TestRegistry_Positions(t *testing.T) {
	t.Run("connect records the pre-auth and return positions", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		r.OnConnect(id, "alice", "", joinPos)

		pre, ok := r.PreAuthPosition(id)
		require.True(t, ok)
		assert.Equal(t, joinPos, pre)

		ret, ok := r.ReturnPosition(id)
		require.True(t, ok)
		assert.Equal(t, joinPos, ret)
	})

	t.Run("relocating updates the anchor but not the return position", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		holding := world.Position{World: "world", X: 0, Y: 100, Z: 0}

		r.OnConnect(id, "alice", "", joinPos)
		r.UpdatePreAuthPosition(id, holding)

		pre, _ := r.PreAuthPosition(id)
		assert.Equal(t, holding, pre)

		ret, _ := r.ReturnPosition(id)
		assert.Equal(t, joinPos, ret)
	})

	t.Run("stored last position overrides the return position", func(t *testing.T) {
		r := auth.NewRegistry()
		id := ulid.Make()
		last := world.Position{World: "mine", X: -40, Y: 12, Z: 7}

		r.OnConnect(id, "alice", "", joinPos)
		r.SetReturnPosition(id, last)

		ret, _ := r.ReturnPosition(id)
		assert.Equal(t, last, ret)
	})

	t.Run("unknown sessions have no positions", func(t *testing.T) {
		r := auth.NewRegistry()
		_, ok := r.PreAuthPosition(ulid.Make())
		assert.False(t, ok)
	})
}

func TestRegistry_Snapshots(t *testing.T) {
	r := auth.NewRegistry()
	authed := ulid.Make()
	acct := ulid.Make()
	waiting := ulid.Make()

	r.OnConnect(authed, "alice", "", joinPos)
	r.SetAccount(authed, acct)
	r.Authenticate(authed)
	r.OnConnect(waiting, "bob", "", joinPos)

	assert.Equal(t, []ulid.ULID{authed}, r.AuthenticatedIDs())
	assert.Equal(t, 1, r.UnauthenticatedCount())

	accounts := r.AuthenticatedAccounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, authed, accounts[0].SessionID)
	assert.Equal(t, acct, accounts[0].AccountID)
}

func TestRegistry_Shutdown(t *testing.T) {
	r := auth.NewRegistry()
	id := ulid.Make()
	h := &fakeHandle{}

	r.OnConnect(id, "alice", "", joinPos)
	r.SetReminder(id, h)
	r.Shutdown()

	assert.False(t, r.Live(id))
	assert.Equal(t, int64(1), h.cancels.Load())
}
