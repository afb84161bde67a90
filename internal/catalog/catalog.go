// Package catalog resolves generation model names to provider adapters using
// a remotely fetched platform catalog. The catalog is cached with a fixed
// freshness window; fetch failures degrade to built-in defaults and are
// logged rather than surfaced, so lookups stay non-fatal.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nvega/genbridge/internal/notify"
)

// ErrModelNotFound is returned when a category/model pair is not present in
// the catalog.
var ErrModelNotFound = errors.New("catalog: model not found")

// Entry describes one model in the catalog.
type Entry struct {
	// Provider is the registry name of the adapter serving this model.
	Provider string `json:"provider"`
	// Submodel is an optional provider-side model identifier.
	Submodel string `json:"submodel,omitempty"`
	// Fallback names the substitute model used when this one is unusable.
	Fallback string `json:"fallback,omitempty"`
}

// Document is the platform -> model -> submodel catalog shape.
type Document struct {
	// Categories maps a generation domain to its models.
	Categories map[string]map[string]Entry `json:"categories"`
	// VideoBackend is the concrete adapter the delegating video model
	// dispatches to. Read lazily, per call.
	VideoBackend string `json:"video_backend,omitempty"`
}

// snapshot pairs a fetched document with its fetch time so freshness is a
// pure predicate over the pair.
type snapshot struct {
	doc       Document
	fetchedAt time.Time
}

// fresh reports whether the snapshot is still within the freshness window.
func (s snapshot) fresh(now time.Time, ttl time.Duration) bool {
	if s.fetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.fetchedAt) < ttl
}

// Catalog caches the remote catalog document. The cached value is the only
// shared mutable state here and is guarded by a read-write mutex; it is
// eventually consistent with the remote within the TTL.
type Catalog struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu   sync.RWMutex
	snap snapshot
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cat *Catalog) {
		cat.httpClient = c
	}
}

// WithTTL sets the freshness window.
func WithTTL(d time.Duration) Option {
	return func(cat *Catalog) {
		cat.ttl = d
	}
}

// WithClock sets the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(cat *Catalog) {
		cat.now = now
	}
}

// New creates a catalog backed by the given URL. An empty URL disables
// remote fetching entirely and serves the built-in defaults.
func New(url string, logger *slog.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		url:        url,
		ttl:        5 * time.Minute,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Defaults is the catalog served when the remote document is unavailable.
func Defaults() Document {
	return Document{
		Categories: map[string]map[string]Entry{
			string(notify.CategoryVideo): {
				"sora":      {Provider: "sora", Fallback: "kling-std"},
				"kling-std": {Provider: "kling", Fallback: "vidu-std"},
				"vidu-std":  {Provider: "vidu"},
				"seedance":  {Provider: "ark", Submodel: "doubao-seedance-1-0-pro-250528", Fallback: "sora"},
			},
			string(notify.CategoryImage): {
				"wanx":     {Provider: "qwen", Submodel: "wan2.2-t2i-flash", Fallback: "cogview"},
				"cogview":  {Provider: "glm", Submodel: "cogview-3-plus", Fallback: "mm-image"},
				"mm-image": {Provider: "minimax", Submodel: "image-01", Fallback: "wanx"},
			},
			string(notify.CategoryText): {
				"glm-text": {Provider: "glm", Submodel: "glm-4-flash"},
			},
		},
		VideoBackend: "vector",
	}
}

// Resolve returns the catalog entry for a category/model pair.
func (c *Catalog) Resolve(ctx context.Context, category notify.Category, model string) (Entry, error) {
	doc := c.document(ctx)
	models, ok := doc.Categories[string(category)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: category %q", ErrModelNotFound, category)
	}
	entry, ok := models[model]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s/%s", ErrModelNotFound, category, model)
	}
	return entry, nil
}

// Fallback returns the substitute model for a category/model pair, when the
// catalog declares one.
func (c *Catalog) Fallback(ctx context.Context, category notify.Category, model string) (string, Entry, bool) {
	entry, err := c.Resolve(ctx, category, model)
	if err != nil || entry.Fallback == "" {
		return "", Entry{}, false
	}
	sub, err := c.Resolve(ctx, category, entry.Fallback)
	if err != nil {
		return "", Entry{}, false
	}
	return entry.Fallback, sub, true
}

// VideoBackend returns the concrete adapter name the delegating video model
// should dispatch to. It consults the current document on every call so a
// catalog update takes effect without restarting.
func (c *Catalog) VideoBackend(ctx context.Context) string {
	doc := c.document(ctx)
	if doc.VideoBackend == "" {
		return Defaults().VideoBackend
	}
	return doc.VideoBackend
}

// document returns a fresh catalog, refetching when the cached snapshot has
// expired. On fetch failure the stale snapshot (or the defaults) is served.
func (c *Catalog) document(ctx context.Context) Document {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap.fresh(c.now(), c.ttl) {
		return snap.doc
	}

	if c.url == "" {
		return Defaults()
	}

	doc, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("catalog fetch failed, serving stale or default catalog",
			slog.String("url", c.url),
			slog.String("error", err.Error()),
		)
		if snap.fetchedAt.IsZero() {
			return Defaults()
		}
		return snap.doc
	}

	c.mu.Lock()
	c.snap = snapshot{doc: doc, fetchedAt: c.now()}
	c.mu.Unlock()

	return doc
}

func (c *Catalog) fetch(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("catalog: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("catalog: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("catalog: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("catalog: fetch returned status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("catalog: decode: %w", err)
	}
	return doc, nil
}
