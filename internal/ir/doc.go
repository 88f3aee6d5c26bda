// Package ir defines the deterministic value model shared by scopes, event
// records, traces and the store.
//
// Values are restricted to null, string, int64, bool, array and object.
// Floats are rejected everywhere so that a definition, a seed and an origin
// always produce byte-identical event records.
//
// Canonical serialization follows RFC 8785: object keys ordered by UTF-16
// code units, strings NFC-normalized, no HTML escaping. Event and definition
// identities are SHA-256 hashes over the canonical form with a domain prefix.
package ir
