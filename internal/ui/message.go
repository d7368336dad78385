package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmusicd/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRefreshDone MsgKind = iota
	MsgRefreshEvent
	MsgEventsClosed
)

// refreshDoneMsg is the constructor for [MsgRefreshDone]
func refreshDoneMsg(result tasks.RefreshResult) Msg {
	return Msg{kind: MsgRefreshDone, data: result}
}

// refreshEventMsg is the constructor for [MsgRefreshEvent]
func refreshEventMsg(event tasks.RefreshEvent) Msg {
	return Msg{kind: MsgRefreshEvent, data: event}
}

// eventsClosedMsg is the constructor for [MsgEventsClosed]
func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}
