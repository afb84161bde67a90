// Package bootstrap provides dependency initialization for the generation
// bridge server.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvega/genbridge/internal/archive"
	"github.com/nvega/genbridge/internal/catalog"
	"github.com/nvega/genbridge/internal/config"
	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/notify"
	"github.com/nvega/genbridge/internal/provider"
	"github.com/nvega/genbridge/internal/provider/ark"
	"github.com/nvega/genbridge/internal/provider/glm"
	"github.com/nvega/genbridge/internal/provider/kling"
	"github.com/nvega/genbridge/internal/provider/minimax"
	"github.com/nvega/genbridge/internal/provider/qwen"
	"github.com/nvega/genbridge/internal/provider/sora"
	"github.com/nvega/genbridge/internal/provider/vector"
	"github.com/nvega/genbridge/internal/provider/vidu"
	"github.com/nvega/genbridge/internal/server"
	"github.com/nvega/genbridge/internal/track"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Handlers *server.Handlers
	Service  *track.Service
	Hub      *notify.Hub
}

// NewDependencies creates and initializes all dependencies for the
// application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	cat := catalog.New(cfg.CatalogURL, logger, catalog.WithTTL(cfg.CatalogTTL()))
	hub := notify.NewHub(notify.DefaultBuffer)

	registry, err := newRegistry(cfg, cat)
	if err != nil {
		return nil, fmt.Errorf("create provider registry: %w", err)
	}

	credentials := newCredentials(cfg, cat)

	repo := track.NewMemoryRepository()
	svc := track.NewService(repo, registry, cat, credentials, hub, logger)
	svc.SetMaxConcurrentPolls(cfg.MaxConcurrentPolls)

	store, err := initStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	archiver := archive.NewArchiver(store, logger)

	handlers := server.NewHandlers(svc, archiver, hub, registry, logger)

	return &Dependencies{
		Handlers: handlers,
		Service:  svc,
		Hub:      hub,
	}, nil
}

// newRegistry constructs the adapter registry. The delegating video adapter
// resolves its backend through the catalog and looks the concrete adapter up
// in the same registry, so the registry variable is captured by closure and
// assigned afterwards.
func newRegistry(cfg *config.Config, cat *catalog.Catalog) (*provider.Registry, error) {
	var registry *provider.Registry

	soraAdapter := sora.New(
		func() string { return cat.VideoBackend(context.Background()) },
		func(name string) (gen.Provider, error) { return registry.Lookup(name) },
	)

	registry, err := provider.NewRegistry(
		vector.New(cfg.ProxyBaseURL),
		kling.New(cfg.ProxyBaseURL),
		vidu.New(cfg.ProxyBaseURL),
		ark.New(cfg.ProxyBaseURL),
		qwen.New(cfg.ProxyBaseURL),
		glm.New(cfg.ProxyBaseURL),
		minimax.New(cfg.ProxyBaseURL),
		soraAdapter,
	)
	if err != nil {
		return nil, err
	}
	return registry, nil
}

// newCredentials builds the provider credential resolver. The delegating
// video adapter authenticates with the credential of its current backend.
func newCredentials(cfg *config.Config, cat *catalog.Catalog) track.Credentials {
	return func(name string) (string, error) {
		if name == "sora" {
			name = cat.VideoBackend(context.Background())
		}
		return cfg.Credential(name)
	}
}

// initStore creates the appropriate archive backend based on configuration.
func initStore(cfg *config.Config, logger *slog.Logger) (archive.Store, error) {
	if cfg.S3Enabled() {
		s3Store, err := archive.NewS3Store(archive.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 archive store: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := archive.NewLocalStore(cfg.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("create local archive store: %w", err)
	}
	logger.Info("local archive configured",
		slog.String("dir", cfg.ArchiveDir),
	)
	return localStore, nil
}
