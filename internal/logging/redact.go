// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package logging

import "strings"

// sensitiveCommands are command names whose arguments carry credentials.
var sensitiveCommands = map[string]struct{}{
	"login":          {},
	"l":              {},
	"register":       {},
	"reg":            {},
	"changepassword": {},
	"changepw":       {},
}

// RedactCommand replaces the arguments of credential-bearing commands so the
// line is safe to log. Other lines pass through unchanged. An optional leading
// slash is preserved.
func RedactCommand(line string) string {
	trimmed := line
	prefix := ""
	if strings.HasPrefix(trimmed, "/") {
		prefix = "/"
		trimmed = trimmed[1:]
	}

	name, _, hasArgs := strings.Cut(trimmed, " ")
	if !hasArgs {
		return line
	}
	if _, ok := sensitiveCommands[strings.ToLower(name)]; !ok {
		return line
	}
	return prefix + name + " ***"
}
