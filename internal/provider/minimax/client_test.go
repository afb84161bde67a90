package minimax

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

func TestTransformConfig_QualityFromHD(t *testing.T) {
	adapter := New("http://unused")

	params, err := adapter.TransformConfig(gen.Config{AspectRatio: gen.AspectLandscape, HD: true})
	require.NoError(t, err)
	assert.Equal(t, "hd", params["quality"])
	assert.Equal(t, "16:9", params["aspect_ratio"])

	params, err = adapter.TransformConfig(gen.Config{AspectRatio: gen.AspectPortrait})
	require.NoError(t, err)
	assert.Equal(t, "standard", params["quality"])
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
		assert.Equal(t, "/v1/image_generation_async", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, defaultModel, body["model"])

		_, _ = w.Write([]byte(`{"task_id":"m-1","base_resp":{"status_code":0}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Prompt: "a red bicycle against a white wall",
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")
	require.NoError(t, err)

	assert.Equal(t, "m-1", handle.ID)
	assert.Equal(t, gen.StatusQueued, handle.Status)
}

func TestSubmitTask_QuotaStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base_resp":{"status_code":1008,"status_msg":"insufficient balance"}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	_, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")

	assert.True(t, gen.IsQuotaExhausted(err))
}

func TestSubmitTask_MissingTaskID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base_resp":{"status_code":0}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	_, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape},
	}, "secret")

	var xerr *gen.ExtractionError
	assert.ErrorAs(t, err, &xerr)
}

func TestCheckStatus_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/query/image_generation", r.URL.Path)
		assert.Equal(t, "m-1", r.URL.Query().Get("task_id"))
		_, _ = w.Write([]byte(`{"task_id":"m-1","status":"Success","image_urls":["https://cdn.example/m.png"],"base_resp":{"status_code":0}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	var reported []int
	result, err := adapter.CheckStatus(context.Background(), "m-1", "secret", func(p int) {
		reported = append(reported, p)
	})
	require.NoError(t, err)

	assert.Equal(t, gen.StatusCompleted, result.Status)
	assert.Equal(t, []string{"https://cdn.example/m.png"}, result.ImageURLs)
	assert.Equal(t, []int{100}, reported)
}

func TestCheckStatus_SuccessViaDataField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Success","data":{"image_urls":["https://cdn.example/nested.png"]}}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "m-1", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/nested.png"}, result.ImageURLs)
}

func TestCheckStatus_SuccessWithoutImagesDowngrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Success"}`))
	}))
	defer server.Close()

	adapter := New(server.URL)
	result, err := adapter.CheckStatus(context.Background(), "m-1", "secret", nil)
	require.NoError(t, err)

	assert.Equal(t, gen.StatusError, result.Status)
	assert.Equal(t, "completed task has no image urls", result.Error)
}

func TestCheckStatus_Statuses(t *testing.T) {
	tests := []struct {
		upstream string
		want     gen.Status
	}{
		{"Queueing", gen.StatusQueued},
		{"Processing", gen.StatusProcessing},
		{"Failed", gen.StatusError},
		{"Finalizing", gen.StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.upstream, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + tt.upstream + `"}`))
			}))
			defer server.Close()

			adapter := New(server.URL)
			result, err := adapter.CheckStatus(context.Background(), "m-1", "secret", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}
