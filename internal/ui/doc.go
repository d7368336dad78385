// Package ui implements an interactive catalog browser using bubbletea's Elm architecture.
//
// Two views:
//  1. [SectionListView] : the auto playlist sections of the current snapshot
//  2. [EntryListView] : the playlists, artists and albums of one section
//
// The [Model] refreshes the catalog on start and on "r", and listens on the backend's
// non-blocking event channel so scheduled refreshes show up without a keypress.
// Messages flow through the [Msg] union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help via charmbracelet/bubbles/help.
package ui
