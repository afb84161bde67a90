package qwen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvega/genbridge/internal/gen"
)

func TestTransformConfig_SizeAndWatermark(t *testing.T) {
	adapter := New("http://unused")

	tests := []struct {
		name          string
		cfg           gen.Config
		wantSize      string
		wantWatermark bool
	}{
		{"landscape", gen.Config{AspectRatio: gen.AspectLandscape}, "1280*720", true},
		{"portrait hd", gen.Config{AspectRatio: gen.AspectPortrait, HD: true}, "720*1280", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := adapter.TransformConfig(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, params["size"])
			assert.Equal(t, tt.wantWatermark, params["watermark"])
		})
	}
}

func TestTransformConfig_IgnoresDuration(t *testing.T) {
	adapter := New("http://unused")
	_, err := adapter.TransformConfig(gen.Config{AspectRatio: gen.AspectLandscape, Duration: "10"})
	assert.NoError(t, err)
}

func TestTransformConfig_MissingAspectRatio(t *testing.T) {
	adapter := New("http://unused")
	_, err := adapter.TransformConfig(gen.Config{})

	var verr *gen.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "aspect_ratio", verr.Field)
}

func TestSubmitTask_SendsAsyncHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/aigc/text2image/image-synthesis", r.URL.Path)
		assert.Equal(t, "enable", r.Header.Get("X-DashScope-Async"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, defaultModel, body["model"])

		_, _ = w.Write([]byte(`{"output":{"task_id":"q-1","task_status":"PENDING"}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Prompt: "a bowl of ramen, studio lighting",
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")
	require.NoError(t, err)

	assert.Equal(t, "q-1", handle.ID)
	assert.Equal(t, gen.StatusQueued, handle.Status)
}

func TestSubmitTask_TaskIDFallsBackToTopLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"task_id":"top-level"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")
	require.NoError(t, err)
	assert.Equal(t, "top-level", handle.ID)
}

func TestSubmitTask_QuotaCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"Throttling.AllocationQuota","message":"allocated quota exceeded"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	_, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")

	assert.True(t, gen.IsQuotaExhausted(err))
}

func TestCheckStatus_Succeeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/q-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"output":{"task_id":"q-1","task_status":"SUCCEEDED","results":[{"url":"https://cdn.example/1.png"},{"url":"https://cdn.example/2.png"}]}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	var reported []int
	result, err := adapter.CheckStatus(context.Background(), "q-1", "secret", func(p int) {
		reported = append(reported, p)
	})
	require.NoError(t, err)

	assert.Equal(t, gen.StatusCompleted, result.Status)
	assert.Equal(t, []string{"https://cdn.example/1.png", "https://cdn.example/2.png"}, result.ImageURLs)
	assert.Equal(t, []int{100}, reported)
}

func TestCheckStatus_SucceededWithoutResultsDowngrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":{"task_id":"q-1","task_status":"SUCCEEDED","results":[]}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "q-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusError, result.Status)
	assert.Equal(t, "completed task has no image urls", result.Error)
}

func TestCheckStatus_PendingAndRunning(t *testing.T) {
	tests := []struct {
		upstream string
		want     gen.Status
	}{
		{"PENDING", gen.StatusQueued},
		{"RUNNING", gen.StatusProcessing},
		{"FAILED", gen.StatusError},
		{"UNKNOWN", gen.StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.upstream, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"output":{"task_id":"q-1","task_status":"` + tt.upstream + `"}}`))
			}))
			defer server.Close()

			adapter := New(server.URL)
			result, err := adapter.CheckStatus(context.Background(), "q-1", "secret", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestCheckStatus_FailedCarriesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":{"task_id":"q-1","task_status":"FAILED","message":"prompt rejected"}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "q-1", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, "prompt rejected", result.Error)
}
