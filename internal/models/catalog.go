package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// URIScheme prefixes every catalog URI.
const URIScheme = "ytmusic"

// SectionNamespace is the namespace tag for sections built from the home feed.
const SectionNamespace = "auto"

// EntryType tags the variant held by a [CatalogEntry].
type EntryType string

const (
	EntryPlaylist EntryType = "playlist"
	EntryArtist   EntryType = "artist"
	EntryAlbum    EntryType = "album"
)

// CatalogEntry is one browsable reference inside a [CatalogSection].
type CatalogEntry struct {
	Type EntryType `json:"type"`
	URI  string    `json:"uri"`
	Name string    `json:"name"`
}

// NewPlaylistEntry builds a playlist entry named after the playlist title.
func NewPlaylistEntry(playlistID, title string) CatalogEntry {
	return CatalogEntry{Type: EntryPlaylist, URI: EntryURI(EntryPlaylist, playlistID), Name: title}
}

// NewArtistEntry builds an artist entry; the name carries an " (Artist)" suffix.
func NewArtistEntry(browseID, title string) CatalogEntry {
	return CatalogEntry{Type: EntryArtist, URI: EntryURI(EntryArtist, browseID), Name: title + " (Artist)"}
}

// NewAlbumEntry builds an album entry named "<year> - <title> (Album)".
func NewAlbumEntry(browseID, title, year string) CatalogEntry {
	return CatalogEntry{
		Type: EntryAlbum,
		URI:  EntryURI(EntryAlbum, browseID),
		Name: fmt.Sprintf("%s - %s (Album)", year, title),
	}
}

// EntryURI formats "ytmusic:<type>:<id>".
func EntryURI(t EntryType, id string) string {
	return URIScheme + ":" + string(t) + ":" + id
}

// CatalogSection is a titled, ordered group of entries.
type CatalogSection struct {
	Key     string         `json:"key"`
	Title   string         `json:"title"`
	Entries []CatalogEntry `json:"entries"`
}

// NewCatalogSection creates an empty section keyed from title.
func NewCatalogSection(title string) *CatalogSection {
	return &CatalogSection{Key: SectionKey(title), Title: title}
}

// Add appends e unless an entry with the same URI is already present.
func (s *CatalogSection) Add(e CatalogEntry) bool {
	for _, existing := range s.Entries {
		if existing.URI == e.URI {
			return false
		}
	}
	s.Entries = append(s.Entries, e)
	return true
}

// SectionKey derives the stable key "ytmusic:auto:<slug>" for a section title.
//
// The slug lowercases letters and digits and collapses every other run of runes into a single "-".
func SectionKey(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if slug == "" {
		slug = "untitled"
	}
	return URIScheme + ":" + SectionNamespace + ":" + slug
}

// Catalog is an immutable snapshot of browsable sections.
//
// A Catalog never holds an empty section. Build one with [NewCatalog]; the zero value is an empty catalog.
type Catalog struct {
	order       []string
	sections    map[string]CatalogSection
	refreshedAt time.Time
}

// NewCatalog builds a snapshot from sections in order. Empty sections are dropped.
// When two sections share a key the later one replaces the earlier one in its original position.
func NewCatalog(sections []*CatalogSection, refreshedAt time.Time) *Catalog {
	c := &Catalog{sections: make(map[string]CatalogSection, len(sections)), refreshedAt: refreshedAt}
	for _, s := range sections {
		if s == nil {
			continue
		}
		if _, seen := c.sections[s.Key]; !seen {
			c.order = append(c.order, s.Key)
		}
		entries := make([]CatalogEntry, len(s.Entries))
		copy(entries, s.Entries)
		c.sections[s.Key] = CatalogSection{Key: s.Key, Title: s.Title, Entries: entries}
	}

	kept := c.order[:0]
	for _, key := range c.order {
		if len(c.sections[key].Entries) == 0 {
			delete(c.sections, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	return c
}

// Len returns the number of sections.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Keys returns section keys in feed order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Section looks up a section by key.
func (c *Catalog) Section(key string) (CatalogSection, bool) {
	if c == nil {
		return CatalogSection{}, false
	}
	s, ok := c.sections[key]
	return s, ok
}

// Sections returns copies of all sections in feed order.
func (c *Catalog) Sections() []CatalogSection {
	if c == nil {
		return nil
	}
	out := make([]CatalogSection, 0, len(c.order))
	for _, key := range c.order {
		s := c.sections[key]
		s.Entries = append([]CatalogEntry(nil), s.Entries...)
		out = append(out, s)
	}
	return out
}

// EntryCount returns the total number of entries across all sections.
func (c *Catalog) EntryCount() int {
	n := 0
	if c == nil {
		return n
	}
	for _, s := range c.sections {
		n += len(s.Entries)
	}
	return n
}

// RefreshedAt reports when the snapshot was built.
func (c *Catalog) RefreshedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.refreshedAt
}

type catalogJSON struct {
	RefreshedAt time.Time        `json:"refreshed_at"`
	Sections    []CatalogSection `json:"sections"`
}

// MarshalJSON encodes the snapshot with its sections in feed order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	sections := c.Sections()
	if sections == nil {
		sections = []CatalogSection{}
	}
	return json.Marshal(catalogJSON{RefreshedAt: c.RefreshedAt(), Sections: sections})
}

// UnmarshalJSON restores a snapshot written by [Catalog.MarshalJSON].
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw catalogJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sections := make([]*CatalogSection, 0, len(raw.Sections))
	for i := range raw.Sections {
		sections = append(sections, &raw.Sections[i])
	}
	*c = *NewCatalog(sections, raw.RefreshedAt)
	return nil
}
