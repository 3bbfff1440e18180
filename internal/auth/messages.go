// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import "fmt"

// Messages holds every player-facing string the engine sends. Hosts override
// fields to localize; zero-value fields fall back to DefaultMessages.
type Messages struct {
	PromptLogin       string
	PromptRegister    string
	Reminder          string
	LoginSuccess      string
	RegisterSuccess   string
	AlreadyLoggedIn   string
	AlreadyRegistered string
	NotRegistered     string
	WrongPassword     string // takes attempts left
	TooManyAttempts   string
	LoginTimeout      string
	AddressCooldown   string // takes seconds left
	PasswordMismatch  string
	InvalidName       string
	StoreUnavailable  string
	ActionLocked      string
}

// DefaultMessages returns the built-in English messages.
func DefaultMessages() Messages {
	return Messages{
		PromptLogin:       "Please log in with /login <password>",
		PromptRegister:    "Please register with /register <password> <password>",
		Reminder:          "You must authenticate before playing.",
		LoginSuccess:      "Login successful. Welcome back!",
		RegisterSuccess:   "Registration successful. Now log in with /login <password>",
		AlreadyLoggedIn:   "You are already logged in.",
		AlreadyRegistered: "This account is already registered.",
		NotRegistered:     "This account is not registered. Use /register first.",
		WrongPassword:     "Wrong password. %d attempt(s) left.",
		TooManyAttempts:   "Too many failed login attempts.",
		LoginTimeout:      "Login timed out.",
		AddressCooldown:   "This address was used moments ago. Try again in %d second(s).",
		PasswordMismatch:  "The two passwords do not match.",
		InvalidName:       "That account name is not allowed.",
		StoreUnavailable:  "The account store is unavailable. Try again shortly.",
		ActionLocked:      "You must authenticate before doing that.",
	}
}

// fill replaces zero-value fields with the defaults.
func (m Messages) fill() Messages {
	def := DefaultMessages()
	if m.PromptLogin == "" {
		m.PromptLogin = def.PromptLogin
	}
	if m.PromptRegister == "" {
		m.PromptRegister = def.PromptRegister
	}
	if m.Reminder == "" {
		m.Reminder = def.Reminder
	}
	if m.LoginSuccess == "" {
		m.LoginSuccess = def.LoginSuccess
	}
	if m.RegisterSuccess == "" {
		m.RegisterSuccess = def.RegisterSuccess
	}
	if m.AlreadyLoggedIn == "" {
		m.AlreadyLoggedIn = def.AlreadyLoggedIn
	}
	if m.AlreadyRegistered == "" {
		m.AlreadyRegistered = def.AlreadyRegistered
	}
	if m.NotRegistered == "" {
		m.NotRegistered = def.NotRegistered
	}
	if m.WrongPassword == "" {
		m.WrongPassword = def.WrongPassword
	}
	if m.TooManyAttempts == "" {
		m.TooManyAttempts = def.TooManyAttempts
	}
	if m.LoginTimeout == "" {
		m.LoginTimeout = def.LoginTimeout
	}
	if m.AddressCooldown == "" {
		m.AddressCooldown = def.AddressCooldown
	}
	if m.PasswordMismatch == "" {
		m.PasswordMismatch = def.PasswordMismatch
	}
	if m.InvalidName == "" {
		m.InvalidName = def.InvalidName
	}
	if m.StoreUnavailable == "" {
		m.StoreUnavailable = def.StoreUnavailable
	}
	if m.ActionLocked == "" {
		m.ActionLocked = def.ActionLocked
	}
	return m
}

func (m Messages) wrongPassword(left int) string {
	return fmt.Sprintf(m.WrongPassword, left)
}

func (m Messages) addressCooldown(seconds int) string {
	return fmt.Sprintf(m.AddressCooldown, seconds)
}
