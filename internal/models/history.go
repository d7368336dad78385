package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RefreshKind names the refresh cycle that produced a [RefreshRun].
type RefreshKind string

const (
	RefreshPlayer  RefreshKind = "player"
	RefreshCatalog RefreshKind = "catalog"
)

// Valid reports whether k is a known refresh kind.
func (k RefreshKind) Valid() bool {
	return k == RefreshPlayer || k == RefreshCatalog
}

// ParseRefreshKind converts user input into a [RefreshKind].
func ParseRefreshKind(s string) (RefreshKind, error) {
	k := RefreshKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown refresh kind %q (want player or catalog)", s)
	}
	return k, nil
}

// RefreshOutcome summarizes what a refresh run did.
type RefreshOutcome string

const (
	OutcomeUpdated   RefreshOutcome = "updated"
	OutcomeUnchanged RefreshOutcome = "unchanged"
	OutcomeFailed    RefreshOutcome = "failed"
)

// RefreshRun records one execution of a refresh cycle.
type RefreshRun struct {
	id        string
	sequence  int
	kind      RefreshKind
	startedAt time.Time
	duration  time.Duration
	outcome   RefreshOutcome
	detail    string
	err       string
	createdAt time.Time
	deletedAt *time.Time
}

// NewRefreshRun creates a run record. A non-nil runErr marks the run failed.
func NewRefreshRun(kind RefreshKind, startedAt time.Time, duration time.Duration, outcome RefreshOutcome, detail string, runErr error) *RefreshRun {
	r := &RefreshRun{
		kind:      kind,
		startedAt: startedAt,
		duration:  duration,
		outcome:   outcome,
		detail:    detail,
		createdAt: time.Now(),
	}
	if runErr != nil {
		r.outcome = OutcomeFailed
		r.err = runErr.Error()
	}
	return r
}

func (r *RefreshRun) ID() string { return r.id }
func (r *RefreshRun) Sequence() int { return r.sequence }
func (r *RefreshRun) Kind() RefreshKind { return r.kind }
func (r *RefreshRun) StartedAt() time.Time { return r.startedAt }
func (r *RefreshRun) Duration() time.Duration { return r.duration }
func (r *RefreshRun) Outcome() RefreshOutcome { return r.outcome }
func (r *RefreshRun) Detail() string { return r.detail }
func (r *RefreshRun) ErrorMessage() string { return r.err }
func (r *RefreshRun) CreatedAt() time.Time { return r.createdAt }
func (r *RefreshRun) DeletedAt() *time.Time { return r.deletedAt }
func (r *RefreshRun) SetID(id string) { r.id = id }
func (r *RefreshRun) SetSequence(seq int) { r.sequence = seq }
func (r *RefreshRun) SetError(msg string) { r.err = msg }
func (r *RefreshRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *RefreshRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks the run has a known kind and outcome.
func (r *RefreshRun) Validate() error {
	if !r.kind.Valid() {
		return fmt.Errorf("invalid refresh kind %q", r.kind)
	}
	switch r.outcome {
	case OutcomeUpdated, OutcomeUnchanged, OutcomeFailed:
	default:
		return fmt.Errorf("invalid refresh outcome %q", r.outcome)
	}
	if r.duration < 0 {
		return errors.New("duration cannot be negative")
	}
	return nil
}

// MarshalJSON exposes the run for the history endpoint and CLI.
func (r *RefreshRun) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string         `json:"id"`
		Sequence   int            `json:"sequence"`
		Kind       RefreshKind    `json:"kind"`
		StartedAt  time.Time      `json:"started_at"`
		DurationMS int64          `json:"duration_ms"`
		Outcome    RefreshOutcome `json:"outcome"`
		Detail     string         `json:"detail,omitempty"`
		Error      string         `json:"error,omitempty"`
	}{r.id, r.sequence, r.kind, r.startedAt, r.duration.Milliseconds(), r.outcome, r.detail, r.err})
}

// Scrobble records one playback report.
type Scrobble struct {
	id          string
	sequence    int
	videoID     string
	cpn         string
	statusCode  int
	trackingURL string
	err         string
	createdAt   time.Time
	deletedAt   *time.Time
}

// NewScrobble creates a report record for videoID.
func NewScrobble(videoID, cpn string, statusCode int, trackingURL string, reportErr error) *Scrobble {
	s := &Scrobble{
		videoID:     videoID,
		cpn:         cpn,
		statusCode:  statusCode,
		trackingURL: trackingURL,
		createdAt:   time.Now(),
	}
	if reportErr != nil {
		s.err = reportErr.Error()
	}
	return s
}

func (s *Scrobble) ID() string { return s.id }
func (s *Scrobble) Sequence() int { return s.sequence }
func (s *Scrobble) VideoID() string { return s.videoID }
func (s *Scrobble) CPN() string { return s.cpn }
func (s *Scrobble) StatusCode() int { return s.statusCode }
func (s *Scrobble) TrackingURL() string { return s.trackingURL }
func (s *Scrobble) ErrorMessage() string { return s.err }
func (s *Scrobble) CreatedAt() time.Time { return s.createdAt }
func (s *Scrobble) DeletedAt() *time.Time { return s.deletedAt }
func (s *Scrobble) SetID(id string) { s.id = id }
func (s *Scrobble) SetSequence(seq int) { s.sequence = seq }
func (s *Scrobble) SetError(msg string) { s.err = msg }
func (s *Scrobble) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *Scrobble) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Succeeded reports whether the tracking request was accepted.
func (s *Scrobble) Succeeded() bool {
	return s.err == "" && s.statusCode >= 200 && s.statusCode < 300
}

// Validate requires a video id and a correlation token.
func (s *Scrobble) Validate() error {
	if s.videoID == "" {
		return errors.New("video id is required")
	}
	if s.cpn == "" {
		return errors.New("cpn is required")
	}
	return nil
}

// MarshalJSON exposes the report for the history endpoint and CLI.
func (s *Scrobble) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string    `json:"id"`
		Sequence    int       `json:"sequence"`
		VideoID     string    `json:"video_id"`
		CPN         string    `json:"cpn"`
		StatusCode  int       `json:"status_code"`
		TrackingURL string    `json:"tracking_url,omitempty"`
		Error       string    `json:"error,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}{s.id, s.sequence, s.videoID, s.cpn, s.statusCode, s.trackingURL, s.err, s.createdAt})
}
