package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytmusicd/internal/models"
)

var (
	_ list.Item = sectionItem{}
	_ list.Item = entryItem{}
)

// sectionItem wraps [models.CatalogSection] to implement [list.Item].
type sectionItem struct {
	section models.CatalogSection
}

func (i sectionItem) FilterValue() string { return i.section.Title }
func (i sectionItem) Title() string { return i.section.Title }
func (i sectionItem) Description() string {
	return fmt.Sprintf("%d entries • %s", len(i.section.Entries), i.section.Key)
}

// entryItem wraps [models.CatalogEntry] to implement [list.Item].
type entryItem struct {
	entry models.CatalogEntry
}

func (i entryItem) FilterValue() string { return i.entry.Name }
func (i entryItem) Title() string { return i.entry.Name }
func (i entryItem) Description() string {
	return fmt.Sprintf("%s • %s", styles.Entry(i.entry.Type), i.entry.URI)
}

func sectionItems(catalog *models.Catalog) []list.Item {
	sections := catalog.Sections()
	items := make([]list.Item, len(sections))
	for i, s := range sections {
		items[i] = sectionItem{section: s}
	}
	return items
}

func entryItems(section models.CatalogSection) []list.Item {
	items := make([]list.Item, len(section.Entries))
	for i, e := range section.Entries {
		items[i] = entryItem{entry: e}
	}
	return items
}
