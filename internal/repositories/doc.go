// Package repositories implements SQLite persistence for refresh and scrobble history.
//
// Each repository implements [models.Repository] for one record type with soft deletes via deleted_at.
// Deleted records are excluded from queries.
//
// Key Implementations:
//   - [RefreshRunRepository] : one row per player or catalog refresh cycle
//   - [ScrobbleRepository] : one row per playback report
//   - [HistoryAdapter] : records task results into both repositories
//
// Sequence numbers give stable, human-readable ordering independent of UUIDs and timestamps.
// [NextSequence] atomically increments per-table counters in dedicated sequence tables.
package repositories
