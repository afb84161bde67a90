package vidu

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

func TestTransformConfig_CoercesDuration(t *testing.T) {
	adapter := New("http://unused")

	params, err := adapter.TransformConfig(gen.Config{
		AspectRatio: gen.AspectLandscape,
		Duration:    "8",
		HD:          true,
	})
	require.NoError(t, err)

	assert.Equal(t, gen.Params{
		"aspect_ratio": "16:9",
		"duration":     8,
		"size":         "large",
	}, params)
}

func TestTransformConfig_SizeWithoutHD(t *testing.T) {
	adapter := New("http://unused")

	params, err := adapter.TransformConfig(gen.Config{
		AspectRatio: gen.AspectPortrait,
		Duration:    "4",
	})
	require.NoError(t, err)
	assert.Equal(t, "medium", params["size"])
	assert.Equal(t, "9:16", params["aspect_ratio"])
}

func TestTransformConfig_Validation(t *testing.T) {
	adapter := New("http://unused")

	tests := []struct {
		name  string
		cfg   gen.Config
		field string
	}{
		{"missing aspect ratio", gen.Config{Duration: "4"}, "aspect_ratio"},
		{"unsupported aspect ratio", gen.Config{AspectRatio: "21:9", Duration: "4"}, "aspect_ratio"},
		{"missing duration", gen.Config{AspectRatio: gen.AspectLandscape}, "duration"},
		{"non numeric duration", gen.Config{AspectRatio: gen.AspectLandscape, Duration: "four"}, "duration"},
		{"negative duration", gen.Config{AspectRatio: gen.AspectLandscape, Duration: "-4"}, "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.TransformConfig(tt.cfg)
			var verr *gen.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSubmitTask_SendsIntegerDuration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/videos", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(8), body["duration"])
		assert.Equal(t, "large", body["size"])

		_, _ = w.Write([]byte(`{"task_id":"v-1","status":"Queueing","base_resp":{"status_code":0}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Prompt: "aurora over mountains",
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "8", HD: true},
	}, "secret")
	require.NoError(t, err)

	assert.Equal(t, "v-1", handle.ID)
	assert.Equal(t, gen.StatusQueued, handle.Status)
}

func TestSubmitTask_QuotaStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base_resp":{"status_code":1008,"status_msg":"insufficient balance"}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	_, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "4"},
	}, "secret")

	assert.True(t, gen.IsQuotaExhausted(err))
}

func TestSubmitTask_IDFallsBackToID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"fallback-id"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "4"},
	}, "secret")
	require.NoError(t, err)
	assert.Equal(t, "fallback-id", handle.ID)
}

func TestCheckStatus_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/videos/v-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"task_id":"v-1","status":"Success","video_url":"https://cdn.example/v.mp4","duration":8,"base_resp":{"status_code":0}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	var reported []int
	result, err := adapter.CheckStatus(context.Background(), "v-1", "secret", func(p int) {
		reported = append(reported, p)
	})
	require.NoError(t, err)

	assert.Equal(t, gen.StatusCompleted, result.Status)
	assert.Equal(t, "https://cdn.example/v.mp4", result.VideoURL)
	assert.Equal(t, 8, result.Duration)
	assert.Equal(t, []int{100}, reported)
}

func TestCheckStatus_SuccessViaCreations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Success","creations":[{"url":"https://cdn.example/c.mp4"}]}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "v-1", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/c.mp4", result.VideoURL)
}

func TestCheckStatus_SuccessWithoutURLDowngrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Success"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "v-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusError, result.Status)
	assert.Equal(t, "completed task has no video url", result.Error)
}

func TestCheckStatus_PreparingIsQueued(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Preparing","progress":0}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "v-1", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, gen.StatusQueued, result.Status)
}

func TestCheckStatus_UnknownStatusStaysProcessing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Migrating","progress":40}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "v-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusProcessing, result.Status)
	assert.Equal(t, 40, result.Progress)
}

func TestCheckStatus_Fail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Fail","fail_msg":"generation rejected"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "v-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusError, result.Status)
	assert.Equal(t, "generation rejected", result.Error)
}
