package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/notify"
)

func TestNewRecord(t *testing.T) {
	req := gen.Request{
		Prompt: "test prompt",
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "10"},
	}
	record := NewRecord(notify.CategoryVideo, "sora", req)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, notify.CategoryVideo, record.Category)
	assert.Equal(t, "sora", record.Model)
	assert.Equal(t, gen.StatusQueued, record.Status)
	assert.True(t, record.IsCompliant)
	assert.False(t, record.IsTerminal())
	assert.False(t, record.CreatedAt.IsZero())
}

func TestRecord_ApplyHandle(t *testing.T) {
	record := NewRecord(notify.CategoryVideo, "sora", gen.Request{})
	record.ApplyHandle("vector", "", gen.TaskHandle{
		ID:               "up-1",
		Status:           gen.StatusQueued,
		EstimatedSeconds: 90,
	})

	assert.Equal(t, "vector", record.Provider)
	assert.Equal(t, "up-1", record.UpstreamTaskID)
	assert.Equal(t, 90, record.EstimatedSeconds)
}

func TestRecord_ApplyResult(t *testing.T) {
	record := NewRecord(notify.CategoryVideo, "sora", gen.Request{})
	record.ApplyResult(gen.Result{
		Status:          gen.StatusCompleted,
		Progress:        100,
		VideoURL:        "https://cdn.example/v.mp4",
		VideoResolution: "1080p",
		Quality:         "high",
		Duration:        15,
		IsCompliant:     true,
	})

	assert.Equal(t, gen.StatusCompleted, record.Status)
	assert.Equal(t, 100, record.Progress)
	assert.Equal(t, "https://cdn.example/v.mp4", record.VideoURL)
	assert.Equal(t, "1080p", record.VideoResolution)
	assert.True(t, record.IsTerminal())
}

func TestRecord_ApplyResultKeepsEarlierURL(t *testing.T) {
	record := NewRecord(notify.CategoryVideo, "sora", gen.Request{})
	record.VideoURL = "https://cdn.example/first.mp4"

	record.ApplyResult(gen.Result{Status: gen.StatusProcessing, IsCompliant: true})
	assert.Equal(t, "https://cdn.example/first.mp4", record.VideoURL)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	record := NewRecord(notify.CategoryImage, "wanx", gen.Request{})
	record.ImageURLs = []string{"https://cdn.example/a.png"}

	clone := record.Clone()
	require.Equal(t, record.ImageURLs, clone.ImageURLs)

	clone.ImageURLs[0] = "mutated"
	assert.Equal(t, "https://cdn.example/a.png", record.ImageURLs[0])
}
