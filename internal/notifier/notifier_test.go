package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-intake/internal/config"
)

func testPayload() Payload {
	return Payload{
		Name:       "Jordan Reyes",
		Phone:      "+1 555 867 5309",
		Address:    "12 Elm Street",
		Issue:      "Kitchen sink leaking under the cabinet",
		RequestID:  uuid.New(),
		TenantID:   uuid.New(),
		PropertyID: uuid.New(),
	}
}

func TestRelaySuccess(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	payload := testPayload()
	result := New(srv.URL, time.Second).Relay(context.Background(), payload)

	require.True(t, result.Success)
	assert.Equal(t, "Webhook triggered successfully", result.Message)
	assert.Equal(t, `{"ok":true}`, result.Response)
	assert.Equal(t, payload.RequestID, got.RequestID)
	assert.Equal(t, payload.Issue, got.Issue)
}

func TestRelayNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow disabled", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := New(srv.URL, time.Second).Relay(context.Background(), testPayload())

	require.False(t, result.Success)
	assert.Equal(t, "Webhook failed but form submission was successful", result.Error)
	assert.Contains(t, result.Details, "503")
}

func TestRelayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	result := New(srv.URL, 20*time.Millisecond).Relay(context.Background(), testPayload())

	require.False(t, result.Success)
	assert.NotEmpty(t, result.Details)
}

func TestRelayUnconfigured(t *testing.T) {
	for _, url := range []string{"", config.WebhookPlaceholder} {
		n := New(url, time.Second)
		require.False(t, n.Configured())

		result := n.Relay(context.Background(), testPayload())
		require.False(t, result.Success)
		assert.Equal(t, "Webhook URL not configured", result.Error)
	}
}
