package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytmusicd/internal/models"
)

var styles = NewPalette(PaletteColors{
	Title:    "#7D56F4",
	OK:       "#04B575",
	Failed:   "#FF0000",
	Warn:     "#FFA500",
	Muted:    "#626262",
	Playlist: "#5FAFFF",
	Artist:   "#FF87D7",
	Album:    "#D7AF5F",
})

// PaletteColors names the hex colors a [Palette] is built from.
type PaletteColors struct {
	Title, OK, Failed, Warn, Muted string
	Playlist, Artist, Album        string
}

// Palette holds the styles for refresh status lines and catalog entries.
type Palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	entries map[models.EntryType]lipgloss.Style
}

func NewPalette(c PaletteColors) *Palette {
	return &Palette{
		title: NewBold(c.Title).MarginBottom(1),
		ok:    NewBold(c.OK),
		err:   NewBold(c.Failed),
		warn:  NewStyle(c.Warn),
		muted: NewEm(c.Muted),
		entries: map[models.EntryType]lipgloss.Style{
			models.EntryPlaylist: NewStyle(c.Playlist),
			models.EntryArtist:   NewStyle(c.Artist),
			models.EntryAlbum:    NewStyle(c.Album),
		},
	}
}

// Outcome styles a status line for a refresh outcome. Unchanged runs are muted.
func (p *Palette) Outcome(o models.RefreshOutcome) lipgloss.Style {
	switch o {
	case models.OutcomeFailed:
		return p.err
	case models.OutcomeUnchanged:
		return p.muted
	default:
		return p.ok
	}
}

// Entry renders an entry type tag in its color.
func (p *Palette) Entry(t models.EntryType) string {
	if s, ok := p.entries[t]; ok {
		return s.Render(string(t))
	}
	return string(t)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
