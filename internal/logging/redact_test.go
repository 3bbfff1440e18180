// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"login with password", "/login hunter2", "/login ***"},
		{"register with two passwords", "/register hunter2 hunter2", "/register ***"},
		{"short alias", "/l hunter2", "/l ***"},
		{"mixed case command", "/LOGIN hunter2", "/LOGIN ***"},
		{"no leading slash", "login hunter2", "login ***"},
		{"sensitive command without arguments", "/login", "/login"},
		{"unrelated command", "/home set", "/home set"},
		{"plain chat line", "hello there", "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactCommand(tt.line))
		})
	}
}
