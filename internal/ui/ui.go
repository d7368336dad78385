package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SectionListView ViewState = iota
	EntryListView
)

// Source provides catalog snapshots. Implemented by [tasks.CatalogRefresher].
type Source interface {
	Catalog() *models.Catalog
	Refresh(ctx context.Context) tasks.RefreshResult
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	source      Source
	events      <-chan tasks.RefreshEvent
	catalog     *models.Catalog
	width       int
	height      int
	sectionList list.Model
	entryList   list.Model
	selected    *models.CatalogSection
	refreshing  bool
	status      string
	failed      bool
	help        help.Model
	keys        keyMap
}

// NewModel creates a catalog browser over source.
//
// events may be nil; when set, scheduled refreshes reported on it reload the section list.
func NewModel(ctx context.Context, source Source, events <-chan tasks.RefreshEvent) *Model {
	m := &Model{
		ctx:     ctx,
		view:    SectionListView,
		source:  source,
		events:  events,
		catalog: source.Catalog(),
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.sectionList = newList(sectionItems(m.catalog), "Auto playlists")
	m.entryList = newList(nil, "")
	return m
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init starts a catalog refresh and subscribes to backend events.
func (m *Model) Init() tea.Cmd {
	m.refreshing = true
	return tea.Batch(m.refresh(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sectionList.SetSize(msg.Width-4, msg.Height-8)
		m.entryList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SectionListView:
			return m.handleSectionKeys(msg)
		case EntryListView:
			return m.handleEntryKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRefreshDone:
		result := msg.data.(tasks.RefreshResult)
		m.refreshing = false
		m.failed = result.Err != nil
		if result.Err != nil {
			m.status = fmt.Sprintf("Refresh failed: %v", result.Err)
			return m, nil
		}
		m.status = fmt.Sprintf("Refreshed in %.2fs", result.Duration.Seconds())
		m.reload()
		return m, nil

	case MsgRefreshEvent:
		event := msg.data.(tasks.RefreshEvent)
		m.status = event.Message
		m.failed = event.Outcome == models.OutcomeFailed
		if event.Phase == tasks.RefreshCatalog && event.Outcome != models.OutcomeFailed {
			m.reload()
		}
		return m, m.waitForEvent()

	case MsgEventsClosed:
		m.events = nil
		return m, nil
	}
	return m, nil
}

// reload swaps in the source's current snapshot, keeping the open section if it still exists.
func (m *Model) reload() {
	m.catalog = m.source.Catalog()
	cursor := m.sectionList.Index()
	m.sectionList.SetItems(sectionItems(m.catalog))
	if cursor < len(m.sectionList.Items()) {
		m.sectionList.Select(cursor)
	}

	if m.selected == nil {
		return
	}
	section, ok := m.catalog.Section(m.selected.Key)
	if !ok {
		m.selected = nil
		m.view = SectionListView
		return
	}
	m.openSection(section)
}

func (m *Model) openSection(section models.CatalogSection) {
	m.selected = &section
	m.entryList.Title = section.Title
	m.entryList.SetItems(entryItems(section))
	m.view = EntryListView
}

func (m *Model) handleSectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sectionList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		m.status = "Refreshing..."
		return m, m.refresh()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.sectionList.SelectedItem().(sectionItem); ok {
			m.openSection(item.section)
			m.entryList.ResetSelected()
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleEntryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entryList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SectionListView
		m.selected = nil
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SectionListView:
		m.sectionList, cmd = m.sectionList.Update(msg)
	case EntryListView:
		m.entryList, cmd = m.entryList.Update(msg)
	}
	return m, cmd
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg(m.source.Refresh(m.ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case event, ok := <-events:
			if !ok {
				return eventsClosedMsg()
			}
			return refreshEventMsg(event)
		case <-m.ctx.Done():
			return eventsClosedMsg()
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	var helpKeys []key.Binding

	switch m.view {
	case EntryListView:
		body = m.entryList.View()
		helpKeys = []key.Binding{m.keys.back, m.keys.quit}
	default:
		if m.catalog.Len() == 0 {
			body = styles.title.Render("Auto playlists") + "\n"
			if m.refreshing {
				body += "Loading home feed..."
			} else {
				body += styles.warn.Render("No sections loaded.")
			}
		} else {
			body = m.sectionList.View()
		}
		helpKeys = []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	}

	return fmt.Sprintf("%s\n%s\n%s", body, m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderStatus() string {
	switch {
	case m.status == "":
		return ""
	case m.refreshing:
		return styles.muted.Render(m.status)
	case m.failed:
		return styles.Outcome(models.OutcomeFailed).Render(m.status)
	default:
		return styles.Outcome(models.OutcomeUpdated).Render(m.status)
	}
}
