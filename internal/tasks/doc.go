// Package tasks keeps a YouTube Music integration current and reports playback back to it.
//
// # Schedules
//
// [RepeatingTask] runs an action every interval until cancelled. The first run happens one full interval
// after Start, a panicking action is logged and the schedule continues.
//
// # Refreshers
//
//  1. [PlayerRefresher] : Scrapes the player script URL from music.youtube.com
//     - Compares it with the cached endpoint
//     - Calls [Decoder.UpdateCipher] only when it changed
//
//  2. [CatalogRefresher] : Rebuilds the browsable catalog from the home feed
//     - Classifies items as playlists, artists or albums ([ParseHome])
//     - Drops empty sections
//     - Publishes the snapshot atomically, keeping the old one on failure
//
// # Playback Reports
//
// [ScrobbleReporter] sends a "player" request with a fresh client playback nonce, then hits the
// videostats tracking URL from the response. [Dispatcher] runs reports on a bounded worker queue so
// playback never waits on them.
//
// # Events and History
//
// Every run emits a [RefreshEvent] on an optional channel using select with default, so a slow reader
// never stalls a refresh. The optional [Recorder] persists runs; its errors are logged and ignored.
//
// # Implementation
//
// [Backend] owns both schedules and the dispatcher, with dependencies on:
//   - [Client] : Home feed, InnerTube requests, ambient headers and transport (services.Client)
//   - [Decoder] : Player cipher state (services.PlayerCipher)
//   - [Recorder] : Optional persistence layer (repositories.HistoryAdapter)
package tasks
