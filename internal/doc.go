// Package internal contains helpers private to compassAuth. Today that is the
// monotonic user id generator.
//
// # What this package must NOT do
//
//   - Export types that appear in the public compassAuth API.
//   - Touch durable storage or session state.
package internal
