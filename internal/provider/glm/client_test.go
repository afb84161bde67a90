package glm

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

func TestTransformConfig_Sizes(t *testing.T) {
	adapter := New("http://unused")

	tests := []struct {
		name string
		cfg  gen.Config
		want string
	}{
		{"landscape", gen.Config{AspectRatio: gen.AspectLandscape}, "1344x768"},
		{"landscape hd", gen.Config{AspectRatio: gen.AspectLandscape, HD: true}, "1568x896"},
		{"portrait", gen.Config{AspectRatio: gen.AspectPortrait}, "768x1344"},
		{"portrait hd", gen.Config{AspectRatio: gen.AspectPortrait, HD: true}, "896x1568"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := adapter.TransformConfig(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, params["size"])
		})
	}
}

func TestTransformConfig_MissingAspectRatio(t *testing.T) {
	adapter := New("http://unused")
	_, err := adapter.TransformConfig(gen.Config{})

	var verr *gen.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "aspect_ratio", verr.Field)
}

func TestSubmitTask_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/paas/v4/async/images/generations", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, defaultModel, body["model"])
		assert.Equal(t, "1344x768", body["size"])

		_, _ = w.Write([]byte(`{"id":"g-1","task_status":"PROCESSING"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Prompt: "a lighthouse in fog",
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")
	require.NoError(t, err)

	assert.Equal(t, "g-1", handle.ID)
	assert.Equal(t, gen.StatusQueued, handle.Status)
}

func TestSubmitTask_IDFallsBackToRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"request_id":"req-9"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectPortrait},
	}, "secret")
	require.NoError(t, err)
	assert.Equal(t, "req-9", handle.ID)
}

func TestSubmitTask_EmbeddedErrorOnHTTP4xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"1113","message":"insufficient balance"}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	_, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")

	var perr *gen.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "1113", perr.Code)
	assert.True(t, gen.IsQuotaExhausted(err))
}

func TestCheckStatus_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/paas/v4/async-result/g-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"g-1","task_status":"SUCCESS","image_result":[{"url":"https://cdn.example/g.png"}]}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "g-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusCompleted, result.Status)
	assert.Equal(t, []string{"https://cdn.example/g.png"}, result.ImageURLs)
}

func TestCheckStatus_SuccessWithoutImagesDowngrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"g-1","task_status":"SUCCESS"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "g-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusError, result.Status)
	assert.Equal(t, "completed task has no image urls", result.Error)
}

func TestCheckStatus_Statuses(t *testing.T) {
	tests := []struct {
		upstream string
		want     gen.Status
	}{
		{"PROCESSING", gen.StatusProcessing},
		{"FAIL", gen.StatusError},
		{"ARCHIVED", gen.StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.upstream, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":"g-1","task_status":"` + tt.upstream + `"}`))
			}))
			defer server.Close()

			adapter := New(server.URL)
			result, err := adapter.CheckStatus(context.Background(), "g-1", "secret", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestCheckStatus_EmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"1210","message":"invalid task id"}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	_, err := adapter.CheckStatus(context.Background(), "g-1", "secret", nil)

	var perr *gen.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "1210", perr.Code)
	assert.False(t, gen.IsQuotaExhausted(err))
}
