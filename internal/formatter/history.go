package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/ytmusicd/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = cellStyle.Foreground(lipgloss.Color("9"))
)

const timeLayout = "2006-01-02 15:04:05"

// RunsTable renders refresh runs as a terminal table, newest first as given.
func RunsTable(runs []*models.RefreshRun) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Kind", "Started", "Duration", "Outcome", "Detail")

	for _, run := range runs {
		detail := run.Detail()
		if run.ErrorMessage() != "" {
			detail = run.ErrorMessage()
		}
		t.Row(
			strconv.Itoa(run.Sequence()),
			string(run.Kind()),
			run.StartedAt().Local().Format(timeLayout),
			run.Duration().Round(time.Millisecond).String(),
			string(run.Outcome()),
			detail,
		)
	}

	return t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 4 && row >= 0 && row < len(runs) && runs[row].Outcome() == models.OutcomeFailed {
			return failedStyle
		}
		return cellStyle
	}).String()
}

// ScrobblesTable renders playback reports as a terminal table.
func ScrobblesTable(scrobbles []*models.Scrobble) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Video", "CPN", "Status", "Reported", "Error")

	for _, s := range scrobbles {
		status := "-"
		if s.StatusCode() > 0 {
			status = strconv.Itoa(s.StatusCode())
		}
		t.Row(
			strconv.Itoa(s.Sequence()),
			s.VideoID(),
			s.CPN(),
			status,
			s.CreatedAt().Local().Format(timeLayout),
			s.ErrorMessage(),
		)
	}

	return t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 3 && row >= 0 && row < len(scrobbles) && !scrobbles[row].Succeeded() {
			return failedStyle
		}
		return cellStyle
	}).String()
}

// Summary is a one-line description of a catalog snapshot.
func Summary(catalog *models.Catalog) string {
	if catalog.Len() == 0 {
		return "no auto playlists loaded"
	}
	return fmt.Sprintf("%d sections, %d entries, refreshed %s",
		catalog.Len(), catalog.EntryCount(), catalog.RefreshedAt().Local().Format(timeLayout))
}
