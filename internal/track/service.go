package track

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nvega/genbridge/internal/catalog"
	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/instrument"
	"github.com/nvega/genbridge/internal/notify"
	"github.com/nvega/genbridge/internal/provider"
)

// Credentials resolves the API credential for a provider name.
type Credentials func(provider string) (string, error)

// SubmitInput contains the parameters for a new generation.
type SubmitInput struct {
	Category          notify.Category
	Model             string
	Prompt            string
	ReferenceImageURL string
	Config            gen.Config
}

// Service orchestrates generation submissions and polling across providers.
// It resolves models through the catalog, dispatches to registry adapters,
// and performs at most one fallback substitution per submission.
type Service struct {
	repo        Repository
	registry    *provider.Registry
	catalog     *catalog.Catalog
	credentials Credentials
	hub         *notify.Hub
	logger      *slog.Logger
	// maxConcurrentPolls limits parallel upstream polls in RefreshPending.
	maxConcurrentPolls int
}

// NewService creates a tracking service.
func NewService(repo Repository, registry *provider.Registry, cat *catalog.Catalog, credentials Credentials, hub *notify.Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:               repo,
		registry:           registry,
		catalog:            cat,
		credentials:        credentials,
		hub:                hub,
		logger:             logger,
		maxConcurrentPolls: 4,
	}
}

// SetMaxConcurrentPolls configures how many upstream polls RefreshPending
// runs in parallel.
func (s *Service) SetMaxConcurrentPolls(n int) {
	if n > 0 {
		s.maxConcurrentPolls = n
	}
}

// Submit resolves the requested model, submits the generation to its
// provider, and persists a tracking record. When the primary provider fails
// with a provider or transport error and the catalog declares a substitute,
// exactly one fallback submission is attempted and exactly one notification
// is published. Validation and configuration errors are surfaced without
// substitution: a differently addressed provider cannot fix a bad request.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Record, error) {
	if !input.Category.IsValid() {
		return nil, &gen.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", input.Category)}
	}
	if input.Model == "" {
		return nil, &gen.ValidationError{Field: "model", Reason: "model is required"}
	}

	entry, err := s.catalog.Resolve(ctx, input.Category, input.Model)
	if err != nil {
		return nil, err
	}

	req := gen.Request{
		Prompt:            input.Prompt,
		ReferenceImageURL: input.ReferenceImageURL,
		Config:            input.Config,
	}
	record := NewRecord(input.Category, input.Model, req)

	handle, err := s.dispatch(ctx, entry, req)
	if err == nil {
		record.ApplyHandle(entry.Provider, entry.Submodel, handle)
		if saveErr := s.repo.Save(ctx, record); saveErr != nil {
			return nil, saveErr
		}
		return record, nil
	}

	if !fallbackEligible(err) {
		return nil, err
	}

	fbModel, fbEntry, ok := s.catalog.Fallback(ctx, input.Category, input.Model)
	if !ok {
		return nil, err
	}

	reason := notify.ReasonProviderFailure
	if gen.IsQuotaExhausted(err) {
		reason = notify.ReasonQuotaExhausted
	}
	s.hub.Publish(notify.Event{
		Category:  input.Category,
		FromModel: input.Model,
		ToModel:   fbModel,
		Reason:    reason,
	})
	s.logger.Warn("model fallback",
		slog.String("category", string(input.Category)),
		slog.String("from", input.Model),
		slog.String("to", fbModel),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)

	handle, err = s.dispatch(ctx, fbEntry, req)
	if err != nil {
		return nil, err
	}

	record.FellBackFrom = input.Model
	record.Model = fbModel
	record.ApplyHandle(fbEntry.Provider, fbEntry.Submodel, handle)
	if saveErr := s.repo.Save(ctx, record); saveErr != nil {
		return nil, saveErr
	}
	return record, nil
}

// dispatch submits the request to the adapter named by the catalog entry.
func (s *Service) dispatch(ctx context.Context, entry catalog.Entry, req gen.Request) (gen.TaskHandle, error) {
	adapter, err := s.registry.Lookup(entry.Provider)
	if err != nil {
		return gen.TaskHandle{}, err
	}
	credential, err := s.credentials(adapter.Name())
	if err != nil {
		return gen.TaskHandle{}, err
	}

	return instrument.Do(ctx, s.logger, "submit:"+adapter.Name(),
		map[string]any{"submodel": entry.Submodel},
		func(ctx context.Context) (gen.TaskHandle, error) {
			return adapter.SubmitTask(ctx, req, credential)
		})
}

// Get retrieves a record without polling upstream.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all tracked records.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.repo.List(ctx)
}

// Refresh polls the upstream once for a non-terminal record and persists the
// normalized result. Terminal records are returned as-is without an upstream
// call. Poll cadence is entirely the caller's.
func (s *Service) Refresh(ctx context.Context, id string) (*Record, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return record, nil
	}

	adapter, err := s.registry.Lookup(record.Provider)
	if err != nil {
		return nil, err
	}
	credential, err := s.credentials(adapter.Name())
	if err != nil {
		return nil, err
	}

	result, err := instrument.Do(ctx, s.logger, "poll:"+adapter.Name(),
		map[string]any{"task_id": record.UpstreamTaskID},
		func(ctx context.Context) (gen.Result, error) {
			return adapter.CheckStatus(ctx, record.UpstreamTaskID, credential, nil)
		})
	if err != nil {
		return nil, err
	}

	record.ApplyResult(result)
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RefreshPending polls every non-terminal record once, bounded by the
// configured concurrency limit. Individual poll failures are logged and do
// not abort the sweep.
func (s *Service) RefreshPending(ctx context.Context) error {
	records, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentPolls)

	for _, record := range records {
		if record.IsTerminal() {
			continue
		}
		g.Go(func() error {
			if _, err := s.Refresh(ctx, record.ID); err != nil {
				s.logger.Warn("refresh failed",
					slog.String("record_id", record.ID),
					slog.String("provider", record.Provider),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}

	return g.Wait()
}

// fallbackEligible reports whether a submission failure justifies trying the
// catalog substitute. Only upstream-side failures qualify.
func fallbackEligible(err error) bool {
	var pe *gen.ProviderError
	var te *gen.TransportError
	return errors.As(err, &pe) || errors.As(err, &te)
}
