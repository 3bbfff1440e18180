// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/sched"
	"github.com/gateward/gateward/internal/world"
)

// session is the per-connection authentication state. Each session has its
// own lock so state changes for one connection never contend with another's.
type session struct {
	mu sync.Mutex

	name string
	addr string

	authenticated  bool
	accountID      ulid.ULID
	hasAccountID   bool
	failedAttempts int
	preAuthPos     world.Position
	hasPreAuthPos  bool
	returnPos      world.Position
	hasReturnPos   bool

	reminder sched.Handle
	timeout  sched.Handle
}

// Registry tracks the authentication state of every live session. All
// methods are safe for concurrent use; operations on a single session are
// linearized by that session's lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[ulid.ULID]*session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[ulid.ULID]*session),
	}
}

func (r *Registry) get(id ulid.ULID) *session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// OnConnect registers a new unauthenticated session standing at pos.
// Reconnecting with an ID that is already live resets that session to the
// unauthenticated state.
func (r *Registry) OnConnect(id ulid.ULID, name, addr string, pos world.Position) {
	s := &session{
		name:          name,
		addr:          addr,
		preAuthPos:    pos,
		hasPreAuthPos: true,
		returnPos:     pos,
		hasReturnPos:  true,
	}

	r.mu.Lock()
	old := r.sessions[id]
	r.sessions[id] = s
	r.mu.Unlock()

	if old != nil {
		old.cancelTasks()
	}
}

// OnDisconnect removes the session and cancels its scheduled tasks. It
// returns the session's account ID and whether it was authenticated, and is
// idempotent: a second call for the same ID reports false.
func (r *Registry) OnDisconnect(id ulid.ULID) (ulid.ULID, bool) {
	r.mu.Lock()
	s := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if s == nil {
		return ulid.ULID{}, false
	}
	s.cancelTasks()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID, s.authenticated
}

// Name returns the player name the session connected with.
func (r *Registry) Name(id ulid.ULID) (string, bool) {
	s := r.get(id)
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, true
}

// Addr returns the source address the session connected from.
func (r *Registry) Addr(id ulid.ULID) (string, bool) {
	s := r.get(id)
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr, true
}

// SetAccount binds the session to its persistent account record.
func (r *Registry) SetAccount(id, accountID ulid.ULID) {
	s := r.get(id)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.accountID = accountID
	s.hasAccountID = true
	s.mu.Unlock()
}

// AccountID returns the account the session is bound to, if any.
func (r *Registry) AccountID(id ulid.ULID) (ulid.ULID, bool) {
	s := r.get(id)
	if s == nil {
		return ulid.ULID{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID, s.hasAccountID
}

// Live reports whether the session is still connected.
func (r *Registry) Live(id ulid.ULID) bool {
	return r.get(id) != nil
}

// IsAuthenticated reports whether the session has passed verification.
// Unknown sessions are not authenticated.
func (r *Registry) IsAuthenticated(id ulid.ULID) bool {
	s := r.get(id)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Authenticate marks the session as authenticated and cancels its reminder
// and timeout tasks. It returns false if the session is unknown or already
// authenticated, so a caller racing a duplicate login sends at most one
// success reply.
func (r *Registry) Authenticate(id ulid.ULID) bool {
	s := r.get(id)
	if s == nil {
		return false
	}

	s.mu.Lock()
	if s.authenticated {
		s.mu.Unlock()
		return false
	}
	s.authenticated = true
	s.failedAttempts = 0
	s.mu.Unlock()

	s.cancelTasks()
	return true
}

// RecordFailedAttempt increments the session's failed-attempt counter and
// returns the new count. Unknown sessions return 0.
func (r *Registry) RecordFailedAttempt(id ulid.ULID) int {
	s := r.get(id)
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedAttempts++
	return s.failedAttempts
}

// SetReminder attaches the reminder task handle, canceling any previous one.
// If the session vanished before the handle was attached, the handle is
// canceled immediately.
func (r *Registry) SetReminder(id ulid.ULID, h sched.Handle) {
	r.setTask(id, h, func(s *session) *sched.Handle { return &s.reminder })
}

// SetTimeout attaches the timeout task handle, canceling any previous one.
func (r *Registry) SetTimeout(id ulid.ULID, h sched.Handle) {
	r.setTask(id, h, func(s *session) *sched.Handle { return &s.timeout })
}

func (r *Registry) setTask(id ulid.ULID, h sched.Handle, slot func(*session) *sched.Handle) {
	s := r.get(id)
	if s == nil {
		h.Cancel()
		return
	}

	s.mu.Lock()
	p := slot(s)
	old := *p
	*p = h
	s.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
}

// PreAuthPosition returns the position recorded when the session connected,
// or false if the session is unknown or has no recorded position.
func (r *Registry) PreAuthPosition(id ulid.ULID) (world.Position, bool) {
	s := r.get(id)
	if s == nil {
		return world.Position{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preAuthPos, s.hasPreAuthPos
}

// UpdatePreAuthPosition overwrites the session's recorded pre-auth position.
// Used when the engine relocates an unauthenticated session, so snap-back
// targets the holding location rather than the join point.
func (r *Registry) UpdatePreAuthPosition(id ulid.ULID, pos world.Position) {
	s := r.get(id)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.preAuthPos = pos
	s.hasPreAuthPos = true
	s.mu.Unlock()
}

// AuthenticatedIDs returns a snapshot of all authenticated session IDs.
func (r *Registry) AuthenticatedIDs() []ulid.ULID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ulid.ULID, 0, len(r.sessions))
	for id, s := range r.sessions {
		s.mu.Lock()
		ok := s.authenticated
		s.mu.Unlock()
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReturnPosition returns where the session should be placed after a
// successful login: the join point, unless overwritten from the account's
// stored last position.
func (r *Registry) ReturnPosition(id ulid.ULID) (world.Position, bool) {
	s := r.get(id)
	if s == nil {
		return world.Position{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returnPos, s.hasReturnPos
}

// SetReturnPosition overwrites the session's post-login destination.
func (r *Registry) SetReturnPosition(id ulid.ULID, pos world.Position) {
	s := r.get(id)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.returnPos = pos
	s.hasReturnPos = true
	s.mu.Unlock()
}

// SessionAccount pairs a live session with the account it authenticated as.
type SessionAccount struct {
	SessionID ulid.ULID
	AccountID ulid.ULID
}

// AuthenticatedAccounts returns a snapshot of every authenticated session
// together with its bound account.
func (r *Registry) AuthenticatedAccounts() []SessionAccount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionAccount, 0, len(r.sessions))
	for id, s := range r.sessions {
		s.mu.Lock()
		ok := s.authenticated && s.hasAccountID
		acct := s.accountID
		s.mu.Unlock()
		if ok {
			out = append(out, SessionAccount{SessionID: id, AccountID: acct})
		}
	}
	return out
}

// UnauthenticatedCount returns the number of live sessions still waiting to
// authenticate.
func (r *Registry) UnauthenticatedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		s.mu.Lock()
		ok := s.authenticated
		s.mu.Unlock()
		if !ok {
			n++
		}
	}
	return n
}

// Shutdown cancels every session's scheduled tasks and clears the registry.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[ulid.ULID]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.cancelTasks()
	}
}

func (s *session) cancelTasks() {
	s.mu.Lock()
	reminder, timeout := s.reminder, s.timeout
	s.reminder, s.timeout = nil, nil
	s.mu.Unlock()

	if reminder != nil {
		reminder.Cancel()
	}
	if timeout != nil {
		timeout.Cancel()
	}
}
