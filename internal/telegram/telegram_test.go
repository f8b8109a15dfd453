package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/deusflow/veritas/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", "@chan", WithBaseURL(srv.URL))
	require.NoError(t, c.SendMessage(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "@chan", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendMessage_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("T", "C", WithBaseURL(srv.URL), WithRetry(retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}))
	require.NoError(t, c.SendMessage(context.Background(), "x"))
	assert.Equal(t, 3, calls)
}

func TestSendMessage_BadRequestNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	c := NewClient("T", "C", WithBaseURL(srv.URL), WithRetry(retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}))
	err := c.SendMessage(context.Background(), "<b")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Description, "can't parse entities")
	assert.Equal(t, 1, calls)
}

func TestSendMessage_TransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient("123:secret-token", "C", WithBaseURL(base), WithRetry(retry.RetryConfig{MaxAttempts: 1}))
	err := c.SendMessage(context.Background(), "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "/bot<redacted>/sendMessage")

	var ue *url.Error
	assert.True(t, errors.As(err, &ue))
}
