// Package canon produces canonical JSON and content digests.
//
// Canonical JSON is used wherever two byte strings must compare equal when
// they describe the same value: golden scenario traces, snapshot digests
// logged when the stored match state is checked against its event log, and
// idempotency keys for event batches sent to the remote authority.
//
// # Canonical Form
//
//   - Object keys sorted by UTF-16 code units
//   - Strings NFC-normalized, with no HTML escaping
//   - Integers only; floats are rejected
//   - null is rejected
//
// Digests are SHA-256 over domain || 0x00 || canonical bytes, so values
// hashed for different purposes never collide.
package canon
