// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"github.com/oklog/ulid/v2"

	"github.com/gateward/gateward/internal/world"
)

// Host is the surface the embedding game server exposes to the engine.
// Implementations must tolerate calls for sessions that have already
// disconnected by treating them as no-ops.
type Host interface {
	// SendMessage delivers a chat-visible message to the session.
	SendMessage(id ulid.ULID, msg string)

	// ShowPrompt presents the login or registration prompt.
	ShowPrompt(id ulid.ULID, msg string)

	// Teleport moves the session's avatar.
	Teleport(id ulid.ULID, pos world.Position)

	// Disconnect kicks the session with a reason shown to the player.
	Disconnect(id ulid.ULID, reason string)

	// SpawnPosition returns the world spawn for the session.
	SpawnPosition(id ulid.ULID) world.Position

	// CurrentPosition returns where the session's avatar stands now.
	CurrentPosition(id ulid.ULID) (world.Position, bool)
}
