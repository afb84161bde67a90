package archive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Archiver downloads generated media from upstream URLs and stores durable
// copies.
type Archiver struct {
	store      Store
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithHTTPClient overrides the default download client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Archiver) {
		a.httpClient = client
	}
}

// NewArchiver creates an archiver backed by the given store.
func NewArchiver(store Store, logger *slog.Logger, opts ...Option) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Archiver{
		store:      store,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ArchiveURL downloads the media at sourceURL and stores it under a key
// derived from recordID, returning the archive URL. The download is streamed
// straight into the store.
func (a *Archiver) ArchiveURL(ctx context.Context, recordID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("archive: create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive: download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive: download returned status %d", resp.StatusCode)
	}

	key := recordID + extensionOf(sourceURL)
	archiveURL, err := a.store.Save(ctx, key, resp.Body)
	if err != nil {
		return "", err
	}

	a.logger.Info("archived media",
		slog.String("record_id", recordID),
		slog.String("url", archiveURL),
	)
	return archiveURL, nil
}

// extensionOf extracts the file extension from a URL path, defaulting to
// .bin when the path carries none.
func extensionOf(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ".bin"
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		return ext
	}
	return ".bin"
}
