package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldvisit/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailerSendPostsToRelay(t *testing.T) {
	var received mailRelayRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	mailer := NewMailerService(config.Config{
		MailRelayURL:    server.URL,
		MailRelayAPIKey: "test-key",
		MailFromAddress: "dispatch@example.com",
	})

	err := mailer.Send(context.Background(), "tech@example.com", "Visita asignada", "detalle")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "dispatch@example.com", received.From)
	assert.Equal(t, "tech@example.com", received.To)
	assert.Equal(t, "Visita asignada", received.Subject)
}

func TestMailerSendReportsRelayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	mailer := NewMailerService(config.Config{
		MailRelayURL:    server.URL,
		MailFromAddress: "dispatch@example.com",
	})

	err := mailer.Send(context.Background(), "tech@example.com", "s", "b")
	assert.Error(t, err)
}

func TestMailerSendWithoutRelayConfigured(t *testing.T) {
	mailer := NewMailerService(config.Config{})

	err := mailer.Send(context.Background(), "tech@example.com", "s", "b")
	assert.Error(t, err)
}
