// Package accounts implements a multi-tenant account backend: bcrypt
// credential storage, JWT session issuance and validation, a single-use
// password reset protocol, and best-effort user lifecycle event
// publication to a message bus.
//
// The package exposes small interfaces (Identity, IdentityProvider,
// TokenService, LifecyclePublisher) so callers can swap the storage or
// transport without touching the orchestration logic. A runnable HTTP
// service wiring everything together lives in cmd/server.
package accounts
