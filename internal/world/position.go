// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package world holds the small world-model types shared by the
// authentication engine and its host.
package world

// Position identifies a point in a named world together with the actor's
// view orientation.
type Position struct {
	World string
	X     float64
	Y     float64
	Z     float64
	Yaw   float32
	Pitch float32
}

// WithOrientation returns p with yaw and pitch taken from o. Used when a
// denied move is snapped back: the actor stays put but may keep looking
// around.
func (p Position) WithOrientation(o Position) Position {
	p.Yaw = o.Yaw
	p.Pitch = o.Pitch
	return p
}
