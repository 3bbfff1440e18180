// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"math"
	"strings"
	"sync"
	"time"
)

// ipStamp records the most recent register or login from an address.
type ipStamp struct {
	name string
	at   time.Time
}

// IPThrottle rate-limits registrations and logins per source address. The
// account that last used an address is exempt from its own cooldown, so a
// player reconnecting from home is never blocked by their own activity.
//
// Entries are purged lazily from Purge, called on the connect path; there is
// no background sweeper.
type IPThrottle struct {
	mu       sync.Mutex
	cooldown time.Duration
	stamps   map[string]ipStamp
}

// NewIPThrottle creates a throttle with the given cooldown. A zero or
// negative cooldown disables throttling.
func NewIPThrottle(cooldown time.Duration) *IPThrottle {
	return &IPThrottle{
		cooldown: cooldown,
		stamps:   make(map[string]ipStamp),
	}
}

// IsBlocked reports whether name attempting from addr is inside another
// account's cooldown window. Empty addresses are never blocked.
func (t *IPThrottle) IsBlocked(addr, name string) bool {
	if t.cooldown <= 0 || addr == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stamp, ok := t.stamps[addr]
	if !ok {
		return false
	}
	if strings.EqualFold(stamp.name, name) {
		return false
	}
	return time.Since(stamp.at) < t.cooldown
}

// SecondsLeft returns how many whole seconds remain on the address's
// cooldown, rounded up, floored at zero.
func (t *IPThrottle) SecondsLeft(addr string) int {
	if t.cooldown <= 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stamp, ok := t.stamps[addr]
	if !ok {
		return 0
	}
	left := t.cooldown - time.Since(stamp.at)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// RecordUse stamps the address with the account that just registered or
// logged in from it.
func (t *IPThrottle) RecordUse(addr, name string) {
	if t.cooldown <= 0 || addr == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stamps[addr] = ipStamp{name: name, at: time.Now()}
}

// Purge drops expired stamps. Called on the connect path so the map stays
// proportional to recently active addresses.
func (t *IPThrottle) Purge() {
	if t.cooldown <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for addr, stamp := range t.stamps {
		if time.Since(stamp.at) >= t.cooldown {
			delete(t.stamps, addr)
		}
	}
}
