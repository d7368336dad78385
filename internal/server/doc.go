// Package server exposes the refresh backend over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so
// wildcards are read with [http.Request.PathValue].
//
// # Routes
//
//	GET  /health               → running state, player endpoint, catalog summary
//	GET  /catalog              → the published catalog snapshot
//	GET  /catalog/{key}        → one section
//	POST /scrobble/{videoId}   → queue a playback report, 202 Accepted
//	GET  /history?kind=&limit= → recent refresh runs
//	GET  /history/scrobbles    → recent playback reports
//
// [RequestLogger] writes one structured log line per request.
package server
