package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDiscordPayload(t *testing.T) {
	payload := buildDiscordPayload(testMessage())

	assert.Equal(t, "New video uploaded! Channel: Gophers", payload.Content)
	require.Len(t, payload.Embeds, 1)
	e := payload.Embeds[0]
	assert.Equal(t, "Generics in practice", e.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", e.URL)
	assert.Equal(t, "2025-11-15T12:00:00Z", e.Timestamp)
	require.NotNil(t, e.Footer)
	assert.Equal(t, "Upload time: 2025-11-15T12:00:00Z", e.Footer.Text)

	msg := testMessage()
	msg.Item.Title = strings.Repeat("t", 300)
	assert.Equal(t, maxEmbedTitleLength, len(buildDiscordPayload(msg).Embeds[0].Title))
}

func TestDiscordSender_Send_NoContentIsSuccess(t *testing.T) {
	var got DiscordWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(fastConfig(), srv.Client(), nil)
	require.NoError(t, d.Send(context.Background(), srv.URL, testMessage()))
	require.Len(t, got.Embeds, 1)
}

func TestExtractRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
	}{
		{name: "json body", body: `{"retry_after": 1.5}`, want: 1500 * time.Millisecond},
		{name: "header", header: "3", body: "", want: 3 * time.Second},
		{name: "body wins over header", header: "9", body: `{"retry_after": 2}`, want: 2 * time.Second},
		{name: "default", want: 5 * time.Second},
		{name: "garbage header", header: "soon", want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, extractRetryAfter(resp, []byte(tt.body)))
		})
	}
}
