package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"discordbridge/internal/jsonutil"
)

// requestTimeout bounds one model call; local models can be slow.
const requestTimeout = 120 * time.Second

// HTTPStatusError is returned when a provider answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("POST %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// postJSON sends payload as JSON and decodes the response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload, out interface{}) error {
	body, err := jsonutil.JSON.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(respBody)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Body: snippet}
	}
	return jsonutil.UnmarshalWithContext(respBody, out, "decode response from "+url)
}

func bearer(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}
