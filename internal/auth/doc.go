// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package auth implements the authentication gate for a live game server.
//
// # Domain Types
//
// Account is the persistent player record. NewAccount creates an Account
// with a validated name and password hash; direct struct initialization
// bypasses validation and may create invalid state. Repository
// implementations receive pre-validated accounts from the constructor.
//
// # Services
//
// Service types coordinate domain operations:
//   - Registry - in-memory per-session authentication state
//   - Pipeline - connect, login, register, and disconnect handling
//   - ResetService - administrative password reset
//   - AdminService - administrative reload and inspection
//
// Services are created with New* constructors that validate dependencies.
// Pipeline handlers return quickly: credential verification and all store
// access run on a background worker, and continuations re-enter the
// session's execution context through the host scheduler.
package auth
