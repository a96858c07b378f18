// Package store provides the SQLite storage client shared by the match
// store, event log, and reference caches.
//
// A Store is opened explicitly and closed explicitly; there is no package
// level handle. Components receive the *Store they operate on.
//
// # Collections
//
//   - current_match: legacy single-slot mirror (key 'current')
//   - matches: incomplete match snapshots keyed by match id
//   - events: point events keyed by event id, indexed by match id and synced
//   - players, venues: reference data mirrored from the remote authority
//   - temp_players: venue-scoped ephemeral players
//
// All timestamps are stored as unix milliseconds (see Millis and FromMillis).
//
// Every connection runs in WAL mode with synchronous=NORMAL, a 5s busy
// timeout and foreign keys enforced. Schema changes after the first release
// are appended to the migrations list and tracked with PRAGMA user_version.
package store
