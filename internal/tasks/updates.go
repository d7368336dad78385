package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytmusicd/internal/models"
)

// RefreshEvent reports the completion of a refresh run or playback report.
//
// Sent to the CLI, TUI or status endpoint for display.
type RefreshEvent struct {
	Phase    Phase                 // Which cycle produced the event
	Outcome  models.RefreshOutcome // What the run did
	Message  string                // Human-readable message for display
	Duration time.Duration         // Wall-clock duration of the run
	At       time.Time             // When the run finished
	Data     any                   // Optional phase-specific data (endpoint, *models.Catalog, *ScrobbleResult)
}

// Phase enumerates the event sources.
type Phase int

const (
	RefreshPlayer Phase = iota
	RefreshCatalog
	ReportScrobble
)

func (p Phase) String() string {
	switch p {
	case RefreshPlayer:
		return "refresh_player"
	case RefreshCatalog:
		return "refresh_catalog"
	case ReportScrobble:
		return "report_scrobble"
	default:
		return ""
	}
}

// sendEvent sends an event through the channel without blocking.
func sendEvent(events chan<- RefreshEvent, ev RefreshEvent) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
		// Channel full, skip this event
	}
}

func playerEvent(res RefreshResult, endpoint string) RefreshEvent {
	msg := "Player URL unchanged"
	switch {
	case res.Err != nil:
		msg = fmt.Sprintf("Player URL refresh failed: %v", res.Err)
	case res.Outcome == models.OutcomeUpdated:
		msg = fmt.Sprintf("Player URL updated to %s", endpoint)
	}
	return RefreshEvent{
		Phase:    RefreshPlayer,
		Outcome:  res.Outcome,
		Message:  msg,
		Duration: res.Duration,
		At:       res.StartedAt.Add(res.Duration),
		Data:     endpoint,
	}
}

func catalogEvent(res RefreshResult, catalog *models.Catalog) RefreshEvent {
	msg := fmt.Sprintf("Auto playlists refreshed in %.2fs (%d sections)", res.Duration.Seconds(), catalog.Len())
	if res.Err != nil {
		msg = fmt.Sprintf("Auto playlists refresh failed: %v", res.Err)
	}
	return RefreshEvent{
		Phase:    RefreshCatalog,
		Outcome:  res.Outcome,
		Message:  msg,
		Duration: res.Duration,
		At:       res.StartedAt.Add(res.Duration),
		Data:     catalog,
	}
}

func scrobbleEvent(res *ScrobbleResult, err error) RefreshEvent {
	ev := RefreshEvent{Phase: ReportScrobble, Outcome: models.OutcomeUpdated, At: time.Now(), Data: res}
	switch {
	case err != nil:
		ev.Outcome = models.OutcomeFailed
		ev.Message = fmt.Sprintf("Scrobble failed: %v", err)
	default:
		ev.Message = fmt.Sprintf("Scrobbled %s (%d)", res.VideoID, res.StatusCode)
	}
	return ev
}
