package messenger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-forecast-bot/internal/messenger"
)

func TestSendPostsMessage(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "token-123", r.URL.Query().Get("access_token"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body

		json.NewEncoder(w).Encode(map[string]string{
			"recipient_id": "u1",
			"message_id":   "mid.1",
		})
	}))
	defer srv.Close()

	client := messenger.NewClient("token-123", zerolog.Nop())
	client.SetBaseURL(srv.URL)

	done := make(chan error, 1)
	client.Send("u1", messenger.TextMessage("hello"), func(err error) { done <- err })

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("send callback never fired")
	}

	body := <-received
	recipient := body["recipient"].(map[string]any)
	assert.Equal(t, "u1", recipient["id"])
	message := body["message"].(map[string]any)
	assert.Equal(t, "hello", message["text"])
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Invalid OAuth access token.", "code": 190},
		})
	}))
	defer srv.Close()

	client := messenger.NewClient("bad-token", zerolog.Nop())
	client.SetBaseURL(srv.URL)

	done := make(chan error, 1)
	client.Send("u1", messenger.TextMessage("hello"), func(err error) { done <- err })

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid OAuth access token")
	case <-time.After(2 * time.Second):
		t.Fatal("send callback never fired")
	}
}

func TestProfileLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/u1", r.URL.Path)
		assert.Equal(t, "first_name,last_name", r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(map[string]string{"first_name": "Ada", "last_name": "Lovelace"})
	}))
	defer srv.Close()

	client := messenger.NewClient("token-123", zerolog.Nop())
	client.SetBaseURL(srv.URL)

	profile, err := client.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Equal(t, "Lovelace", profile.LastName)
}

func TestProfileLookupFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := messenger.NewClient("token-123", zerolog.Nop())
	client.SetBaseURL(srv.URL)

	_, err := client.Profile(context.Background(), "u1")
	assert.Error(t, err)
}
