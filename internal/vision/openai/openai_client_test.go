package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderlens/internal/config"
	"orderlens/internal/port"
	"orderlens/internal/vision"
)

func newTestClient(endpoint string) *Client {
	return NewClientWithEndpoint(&config.VisionProviderConfig{
		Provider:    "openai",
		APIKey:      "test-key",
		TimeoutSecs: 5,
	}, endpoint)
}

func testInput() port.PageInput {
	return port.PageInput{
		ImageBytes:  []byte{0x89, 0x50, 0x4E, 0x47},
		ContentType: "image/png",
		Prompt:      "extract the order",
	}
}

func TestGenerate_Success(t *testing.T) {
	var gotBody map[string]interface{}
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "extracted"}, "finish_reason": "stop"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	text, err := client.Generate(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "extracted", text)

	assert.Equal(t, "Bearer test-key", gotHeaders.Get("Authorization"))
	assert.Equal(t, float64(16384), gotBody["max_completion_tokens"])

	messages := gotBody["messages"].([]interface{})
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 2)
	imageURL := content[0].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(imageURL["url"].(string), "data:image/png;base64,"))
}

func TestGenerate_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), testInput())
	require.Error(t, err)

	var rateErr *vision.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "openai", rateErr.Provider)
	assert.Equal(t, 12.0, rateErr.RetryAfter.Seconds())
}

func TestGenerate_Truncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "partial"}, "finish_reason": "length"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_reason: length")
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(&config.VisionProviderConfig{Provider: "openai", APIKey: "k"})
	assert.Equal(t, "openai", client.Name())
	assert.Equal(t, "gpt-4o", client.model)
}
