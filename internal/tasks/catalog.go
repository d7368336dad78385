package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/tidwall/gjson"
)

// DefaultHomeLimit is the home-feed size requested when none is configured.
// Anything smaller than 7 usually omits the "Mixed for you" shelf.
const DefaultHomeLimit = 7

// ParseHome normalizes a raw home feed into a catalog snapshot.
//
// Each top-level section becomes a [models.CatalogSection] keyed from its title. Items are classified by the
// first marker present: "playlistId" (playlist), "subscribers" (artist), then "year" (album). Null items,
// items without a marker and items missing their id are skipped. Empty sections are dropped.
func ParseHome(data []byte, refreshedAt time.Time) (*models.Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: home feed is not valid JSON", shared.ErrMalformedBody)
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: home feed is not a list of sections", shared.ErrMalformedBody)
	}

	var sections []*models.CatalogSection
	for i, sect := range root.Array() {
		title := sect.Get("title")
		if !title.Exists() {
			return nil, fmt.Errorf("%w: section %d has no title", shared.ErrMissingField, i)
		}

		section := models.NewCatalogSection(title.String())
		for _, item := range sect.Get("contents").Array() {
			if entry, ok := classifyItem(item); ok {
				section.Add(entry)
			}
		}
		sections = append(sections, section)
	}

	return models.NewCatalog(sections, refreshedAt), nil
}

// classifyItem maps a home-feed item onto a catalog entry.
func classifyItem(item gjson.Result) (models.CatalogEntry, bool) {
	if !item.IsObject() {
		return models.CatalogEntry{}, false
	}

	title := item.Get("title").String()
	browseID := item.Get("browseId").String()

	switch {
	case item.Get("playlistId").Exists():
		id := item.Get("playlistId").String()
		if id == "" {
			return models.CatalogEntry{}, false
		}
		return models.NewPlaylistEntry(id, title), true
	case item.Get("subscribers").Exists():
		if browseID == "" {
			return models.CatalogEntry{}, false
		}
		return models.NewArtistEntry(browseID, title), true
	case item.Get("year").Exists():
		if browseID == "" {
			return models.CatalogEntry{}, false
		}
		return models.NewAlbumEntry(browseID, title, item.Get("year").String()), true
	default:
		// Song quick-picks and other shelves are not browsable.
		return models.CatalogEntry{}, false
	}
}

// CatalogRefresher rebuilds the published catalog from the home feed.
type CatalogRefresher struct {
	client  Client
	limit   int
	logger  *log.Logger
	hooks   Hooks
	catalog atomic.Pointer[models.Catalog]
}

// NewCatalogRefresher creates a refresher publishing an empty catalog until the first successful refresh.
// A limit below [DefaultHomeLimit] is raised to it.
func NewCatalogRefresher(client Client, limit int, logger *log.Logger, hooks Hooks) *CatalogRefresher {
	if limit < DefaultHomeLimit {
		limit = DefaultHomeLimit
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	r := &CatalogRefresher{
		client: client,
		limit:  limit,
		logger: shared.WithLogger(logger, "component", "catalog"),
		hooks:  hooks,
	}
	r.catalog.Store(models.NewCatalog(nil, time.Time{}))
	return r
}

// Catalog returns the current snapshot. Never nil.
func (r *CatalogRefresher) Catalog() *models.Catalog {
	return r.catalog.Load()
}

// Refresh fetches and parses the home feed, replacing the snapshot on success only.
func (r *CatalogRefresher) Refresh(ctx context.Context) RefreshResult {
	res := RefreshResult{Kind: models.RefreshCatalog, Outcome: models.OutcomeUpdated, StartedAt: r.hooks.now()}

	r.logger.Debug("loading auto playlists", "limit", r.limit)
	data, err := r.client.GetHome(ctx, r.limit)
	if err == nil {
		var catalog *models.Catalog
		if catalog, err = ParseHome(data, res.StartedAt); err == nil {
			r.catalog.Store(catalog)
			res.Detail = fmt.Sprintf("%d sections", catalog.Len())
			r.logger.Infof("loaded %d auto playlist sections", catalog.Len())
		}
	}

	if err != nil {
		res.Outcome, res.Err = models.OutcomeFailed, err
	}
	res.Duration = r.hooks.now().Sub(res.StartedAt)
	return res
}

// Tick runs one refresh and logs the outcome. It is the scheduled action.
func (r *CatalogRefresher) Tick(ctx context.Context) {
	r.RunOnce(ctx)
}

// RunOnce is [CatalogRefresher.Tick] returning the result, for one-shot callers.
func (r *CatalogRefresher) RunOnce(ctx context.Context) RefreshResult {
	res := r.Refresh(ctx)
	if res.Err != nil {
		r.logger.Error("failed to load auto playlists", "error", res.Err)
	}
	r.logger.Infof("Auto playlists refreshed in %.2fs", res.Duration.Seconds())

	sendEvent(r.hooks.Events, catalogEvent(res, r.Catalog()))
	r.hooks.recordRefresh(ctx, res, r.logger)
	return res
}
