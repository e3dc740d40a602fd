// Package compassAuth is the session and credential lifecycle manager of the
// CareerCompass front end: registration, login, logout, session restore and a
// simulated password-reset request, all against a local durable store with no
// backend server.
//
// A [Manager] is built once per application root with [Builder] and handed to
// presentation code, which reads [Manager.Snapshot], calls the operations, and
// re-renders on [Manager.Subscribe] notifications.
//
// # Architecture boundaries
//
// compassAuth owns the state machine (Unknown, Anonymous, Authenticated) and
// the operations that move it. Durable records live behind the store package;
// the token package builds and parses session tokens. Neither is aware of the
// other.
//
// # What this package must NOT do
//
//   - Claim the session token is authentic. It is unsigned; see package token.
//   - Read or write password secrets except through a [SecretMatcher].
//   - Put the reserved admin credential into the directory.
//   - Change in-memory state before the matching store write has succeeded.
package compassAuth
