// Package store provides the durable credential store: the registered-user
// directory and the currently active session, persisted as JSON text records
// behind a pluggable key-value [Backend].
//
// # Records
//
// Three stable keys are used so that a restarted process can restore what a
// previous one wrote:
//
//   - session.user     JSON-encoded [PublicUser]
//   - session.token    the three-segment session token string
//   - directory.users  JSON-encoded []UserRecord
//
// # Failure semantics
//
// Reads are fail-closed: a record that was never written or does not parse is
// reported as absent. Transport failures are returned as [ErrStoreRead] so the
// caller can decide. Writes replace whole records; the session pair is always
// written and cleared as one backend operation.
//
// # What this package must NOT do
//
//   - Interpret tokens, decide expiry, or match credentials.
//   - Import compassAuth or token (no upward imports).
package store
