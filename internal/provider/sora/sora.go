// Package sora exposes a stable video provider name whose actual backend is
// chosen at call time. Callers keep submitting to "sora" while operators swap
// the concrete upstream underneath through the catalog.
package sora

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nvega/genbridge/internal/gen"
)

const name = "sora"

// Estimated completion time is a linear function of the clip length.
const (
	estimateBase         = 30
	estimatePerSecond    = 6
	resolutionHigh       = "1080p"
	resolutionStandard   = "720p"
	qualityHighIndicator = "high"
)

// Resolver returns the backend provider name to delegate to. It is invoked
// on every call so a catalog change takes effect without re-registering.
type Resolver func() string

// Lookup resolves a provider name to its adapter, typically a registry bound
// at startup.
type Lookup func(name string) (gen.Provider, error)

// Adapter implements gen.Provider by delegating to a resolved video backend.
type Adapter struct {
	resolve Resolver
	lookup  Lookup
}

// New creates the delegating adapter.
func New(resolve Resolver, lookup Lookup) *Adapter {
	return &Adapter{resolve: resolve, lookup: lookup}
}

var _ gen.Provider = (*Adapter)(nil)

// Name returns the registry identifier.
func (a *Adapter) Name() string {
	return name
}

func (a *Adapter) backend() (gen.Provider, error) {
	backendName := a.resolve()
	backend, err := a.lookup(backendName)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve backend %q: %w", name, backendName, err)
	}
	return backend, nil
}

// TransformConfig delegates to the currently resolved backend.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	backend, err := a.backend()
	if err != nil {
		return nil, err
	}
	return backend.TransformConfig(cfg)
}

// SubmitTask delegates to the currently resolved backend and annotates the
// handle with a rough completion estimate.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	backend, err := a.backend()
	if err != nil {
		return gen.TaskHandle{}, err
	}

	handle, err := backend.SubmitTask(ctx, req, credential)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	if secs, convErr := strconv.Atoi(req.Config.Duration); convErr == nil && secs > 0 {
		handle.EstimatedSeconds = estimateBase + estimatePerSecond*secs
	}
	return handle, nil
}

// CheckStatus delegates to the currently resolved backend and derives a
// coarse resolution string from the reported quality tier.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	backend, err := a.backend()
	if err != nil {
		return gen.Result{}, err
	}

	result, err := backend.CheckStatus(ctx, taskID, credential, onProgress)
	if err != nil {
		return gen.Result{}, err
	}

	if result.Status == gen.StatusCompleted {
		result.VideoResolution = resolutionStandard
		if result.Quality == qualityHighIndicator {
			result.VideoResolution = resolutionHigh
		}
	}
	return result, nil
}
