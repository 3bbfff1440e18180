// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package gate decides which player actions are allowed before the session
// has authenticated. The host calls a Check* method from each event handler
// and applies the returned decision: cancel the event, warn the player, and
// optionally snap the avatar back.
package gate

import (
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gateward/gateward/internal/observability"
	"github.com/gateward/gateward/internal/world"
)

// Action identifies a gated player action.
type Action int

// Gated actions.
const (
	Movement Action = iota
	Command
	Damage
	Interact
	InventoryOpen
	ItemSwitch
	Chat
	ItemDrop
	ItemPickup
	BlockBreak
	BlockPlace
)

var actionNames = map[Action]string{
	Movement:      "movement",
	Command:       "command",
	Damage:        "damage",
	Interact:      "interact",
	InventoryOpen: "inventory_open",
	ItemSwitch:    "item_switch",
	Chat:          "chat",
	ItemDrop:      "item_drop",
	ItemPickup:    "item_pickup",
	BlockBreak:    "block_break",
	BlockPlace:    "block_place",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Locks selects which configurable actions are gated. Chat, item drops, and
// item pickups are always gated: they leak or lose state regardless of
// configuration.
type Locks struct {
	Movement      bool
	Commands      bool
	Damage        bool
	Interact      bool
	InventoryOpen bool
	ItemSwitch    bool
	BlockBreak    bool
	BlockPlace    bool
}

// rule describes how one action is gated. silent rules deny without
// warning the player; damage and item events fire far too often to chat
// about each one.
type rule struct {
	locked func(Locks) bool
	silent bool
}

var rules = map[Action]rule{
	Movement:      {locked: func(l Locks) bool { return l.Movement }},
	Command:       {locked: func(l Locks) bool { return l.Commands }},
	Damage:        {locked: func(l Locks) bool { return l.Damage }, silent: true},
	Interact:      {locked: func(l Locks) bool { return l.Interact }},
	InventoryOpen: {locked: func(l Locks) bool { return l.InventoryOpen }},
	ItemSwitch:    {locked: func(l Locks) bool { return l.ItemSwitch }},
	Chat:          {locked: func(Locks) bool { return true }},
	ItemDrop:      {locked: func(Locks) bool { return true }, silent: true},
	ItemPickup:    {locked: func(Locks) bool { return true }, silent: true},
	BlockBreak:    {locked: func(l Locks) bool { return l.BlockBreak }},
	BlockPlace:    {locked: func(l Locks) bool { return l.BlockPlace }},
}

// movementEpsilon is the largest per-axis displacement still treated as
// standing still, so rotation-only updates pass.
const movementEpsilon = 1.0e-3

// warnInterval limits how often a session is warned about denied actions.
const warnInterval = 1500 * time.Millisecond

// Decision is the outcome of a gate check.
type Decision struct {
	// Deny cancels the action.
	Deny bool

	// Warn tells the host to show the authenticate-first message. False
	// for silent actions and while the warn rate limit is in effect.
	Warn bool

	// SnapTo, when set, is where the host should move the avatar back to.
	SnapTo *world.Position
}

var Allowed = Decision{}

// SessionState is the slice of session registry behavior the gate needs.
type SessionState interface {
	IsAuthenticated(id ulid.ULID) bool
	PreAuthPosition(id ulid.ULID) (world.Position, bool)
}

// commandMatcher matches one allow-list entry against a command name.
type commandMatcher interface {
	match(name string) bool
}

// prefixMatcher matches any command starting with the entry, so "login"
// also covers client aliases like "login:confirm".
type prefixMatcher string

func (m prefixMatcher) match(name string) bool { return strings.HasPrefix(name, string(m)) }

type globMatcher struct{ g glob.Glob }

func (m globMatcher) match(name string) bool { return m.g.Match(name) }

// Gate evaluates pre-authentication action checks.
type Gate struct {
	sessions SessionState
	locks    Locks
	allow    []commandMatcher

	mu       sync.Mutex
	lastWarn map[ulid.ULID]time.Time
}

// New creates a Gate. allowedCommands entries are command-name prefixes that
// stay usable before authentication; entries may carry glob wildcards and an
// optional leading slash, and match case-insensitively.
func New(sessions SessionState, locks Locks, allowedCommands []string) (*Gate, error) {
	if sessions == nil {
		return nil, oops.Code("GATE_BAD_DEPS").Errorf("session state is required")
	}

	allow := make([]commandMatcher, 0, len(allowedCommands))
	for _, entry := range allowedCommands {
		entry = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(entry), "/"))
		if entry == "" {
			continue
		}
		if strings.ContainsAny(entry, "*?[{") {
			g, err := glob.Compile(entry)
			if err != nil {
				return nil, oops.Code("GATE_BAD_PATTERN").
					With("pattern", entry).
					Wrapf(err, "compiling allow-list entry")
			}
			allow = append(allow, globMatcher{g: g})
			continue
		}
		allow = append(allow, prefixMatcher(entry))
	}

	return &Gate{
		sessions: sessions,
		locks:    locks,
		allow:    allow,
		lastWarn: make(map[ulid.ULID]time.Time),
	}, nil
}

// CheckAction evaluates a non-movement, non-command action.
func (g *Gate) CheckAction(id ulid.ULID, action Action) Decision {
	if g.sessions.IsAuthenticated(id) {
		return Allowed
	}
	r, ok := rules[action]
	if !ok || !r.locked(g.locks) {
		return Allowed
	}
	return g.deny(id, action, r.silent)
}

// CheckMovement evaluates a position update. Rotation-only updates and
// purely vertical descent pass; horizontal or upward displacement is denied
// with a snap-back target at the held position, keeping the new orientation
// so the camera doesn't jerk.
func (g *Gate) CheckMovement(id ulid.ULID, from, to world.Position) Decision {
	if g.sessions.IsAuthenticated(id) {
		return Allowed
	}
	if !g.locks.Movement {
		return Allowed
	}
	if from.World == to.World &&
		abs(to.X-from.X) < movementEpsilon &&
		abs(to.Z-from.Z) < movementEpsilon &&
		to.Y-from.Y < movementEpsilon {
		return Allowed
	}

	d := g.deny(id, Movement, false)
	if anchor, ok := g.sessions.PreAuthPosition(id); ok {
		snap := anchor.WithOrientation(to)
		d.SnapTo = &snap
	}
	return d
}

// CheckCommand evaluates a command line against the allow-list.
func (g *Gate) CheckCommand(id ulid.ULID, line string) Decision {
	if g.sessions.IsAuthenticated(id) {
		return Allowed
	}
	if !g.locks.Commands {
		return Allowed
	}

	name := commandName(line)
	for _, m := range g.allow {
		if m.match(name) {
			return Allowed
		}
	}
	return g.deny(id, Command, false)
}

// Forget drops per-session warn state. Called when a session disconnects.
func (g *Gate) Forget(id ulid.ULID) {
	g.mu.Lock()
	delete(g.lastWarn, id)
	g.mu.Unlock()
}

func (g *Gate) deny(id ulid.ULID, action Action, silent bool) Decision {
	observability.RecordGateDenial(action.String())
	return Decision{
		Deny: true,
		Warn: !silent && g.warnDue(id),
	}
}

// warnDue reports whether the session is past its warn rate limit, and
// stamps it if so.
func (g *Gate) warnDue(id ulid.ULID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if last, ok := g.lastWarn[id]; ok && now.Sub(last) < warnInterval {
		return false
	}
	g.lastWarn[id] = now
	return true
}

func commandName(line string) string {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	name, _, _ := strings.Cut(line, " ")
	return strings.ToLower(name)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
