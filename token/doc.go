// Package token builds and parses the session token: three dot-separated,
// base64url-encoded segments (header, payload, signature) in JWT layout.
//
// # The token is unsigned
//
// The signature segment is a fixed placeholder and the header declares
// alg "none". Nothing in this package verifies authenticity, and callers must
// not treat a decodable token as proof of anything. The codec exists so that
// session restore can read the subject and expiry back out of durable storage.
//
// # What this package must NOT do
//
//   - Claim tamper resistance or add key material.
//   - Touch durable storage.
package token
