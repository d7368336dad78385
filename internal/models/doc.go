// Package models defines domain entities and persistence interfaces for the ytmusicd refresh service.
//
// The package contains two categories of types:
//
// 1. Catalog snapshot types: immutable values published by the catalog refresher
//   - [Catalog] : Ordered set of browsable sections, never containing an empty section
//   - [CatalogSection] : A titled section keyed by a stable "ytmusic:auto:<slug>" key
//   - [CatalogEntry] : A playlist, artist or album reference with a ytmusic URI
//
// 2. Persistent Entities: Database-backed history records
//   - [RefreshRun] : One execution of a refresh cycle with its outcome and duration
//   - [Scrobble] : One playback report sent to YouTube Music
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines standard data access operations.
package models
