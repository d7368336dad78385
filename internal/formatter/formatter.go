// package formatter renders catalog snapshots and history for files and the terminal
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

// Format names an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts the format names and common aliases ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q (want json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension used for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return "." + string(f)
	}
}

// ExportCatalogJSON encodes the snapshot as indented JSON.
func ExportCatalogJSON(catalog *models.Catalog) ([]byte, error) {
	if catalog == nil {
		catalog = &models.Catalog{}
	}
	return shared.MarshalJSON(catalog, true)
}

// ExportCatalogCSV writes one row per entry with columns: Section, Key, Type, Name, URI
func ExportCatalogCSV(catalog *models.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Section", "Key", "Type", "Name", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, section := range catalog.Sections() {
		for _, entry := range section.Entries {
			record := []string{section.Title, section.Key, string(entry.Type), entry.Name, entry.URI}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportCatalogMarkdown renders a heading per section with its entries as a list.
func ExportCatalogMarkdown(catalog *models.Catalog) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Auto playlists\n\n")
	if !catalog.RefreshedAt().IsZero() {
		fmt.Fprintf(&buf, "**Refreshed**: %s\n", catalog.RefreshedAt().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&buf, "**Sections**: %d\n", catalog.Len())
	fmt.Fprintf(&buf, "**Entries**: %d\n", catalog.EntryCount())

	for _, section := range catalog.Sections() {
		fmt.Fprintf(&buf, "\n## %s\n\n", section.Title)
		fmt.Fprintf(&buf, "`%s`\n\n", section.Key)
		for i, entry := range section.Entries {
			fmt.Fprintf(&buf, "%d. %s (%s) `%s`\n", i+1, entry.Name, entry.Type, entry.URI)
		}
	}

	return buf.Bytes(), nil
}

// ExportCatalogText renders the snapshot as an indented plain text outline.
func ExportCatalogText(catalog *models.Catalog) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Auto playlists: %d sections, %d entries\n", catalog.Len(), catalog.EntryCount())

	for _, section := range catalog.Sections() {
		fmt.Fprintf(&buf, "\n%s [%s]\n", section.Title, section.Key)
		for i, entry := range section.Entries {
			fmt.Fprintf(&buf, "  %d. %s\n", i+1, entry.Name)
		}
	}

	return buf.Bytes(), nil
}

// ExportCatalog dispatches to the exporter for format.
func ExportCatalog(catalog *models.Catalog, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportCatalogJSON(catalog)
	case FormatCSV:
		return ExportCatalogCSV(catalog)
	case FormatMarkdown:
		return ExportCatalogMarkdown(catalog)
	case FormatText:
		return ExportCatalogText(catalog)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
}

// WriteCatalogExport writes the snapshot to path in format and returns the path written.
//
// Defaults to catalog{ext} in the working directory. Parent directories are created.
func WriteCatalogExport(catalog *models.Catalog, format Format, path string) (string, error) {
	if path == "" {
		path = "catalog" + format.Extension()
	}

	data, err := ExportCatalog(catalog, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}

	return path, nil
}
