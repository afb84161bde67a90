// Package transport issues single outbound JSON calls on behalf of the
// provider adapters and maps failures onto the shared error taxonomy.
// It never retries: retry policy belongs to the caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nvega/genbridge/internal/gen"
)

// DoJSON performs exactly one HTTP request carrying a Bearer credential and
// an optional JSON body, decoding the response into out. The raw response
// body is returned so adapters can embed it in extraction errors.
//
// Failures map onto the error taxonomy: a failed call is a *TransportError,
// a non-2xx status is a *ProviderError carrying the raw payload, and an
// undecodable body is a *ProviderError with code "invalid_response".
func DoJSON(ctx context.Context, client *http.Client, provider, method, url, credential string, headers map[string]string, body, out any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &gen.TransportError{Provider: provider, Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &gen.TransportError{Provider: provider, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &gen.TransportError{Provider: provider, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gen.TransportError{Provider: provider, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &gen.ProviderError{
			Provider: provider,
			Code:     strconv.Itoa(resp.StatusCode),
			Message:  http.StatusText(resp.StatusCode),
			Raw:      raw,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, &gen.ProviderError{
				Provider: provider,
				Code:     "invalid_response",
				Message:  "response body is not valid JSON",
				Raw:      raw,
			}
		}
	}

	return raw, nil
}
