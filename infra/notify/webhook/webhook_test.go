package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescuegrid/firedispatch/core/notify"
)

func TestBroadcastPostsJSON(t *testing.T) {
	var got notify.Event
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := New(Config{URL: srv.URL})
	err := n.Broadcast(context.Background(), notify.Event{
		Type: notify.EventIncidentCreated, AlarmID: "alarm-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "alarm-1", got.AlarmID)
}

func TestToStationSetsStationID(t *testing.T) {
	var got notify.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := New(Config{URL: srv.URL})
	require.NoError(t, n.ToStation(context.Background(), "st1", notify.Event{
		Type: notify.EventIncidentDispatched,
	}))
	assert.Equal(t, "st1", got.StationID)
}

func TestNon2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(Config{URL: srv.URL})
	err := n.Broadcast(context.Background(), notify.Event{Type: notify.EventIncidentCreated})
	assert.ErrorContains(t, err, "502")
}

func TestClientCredentialsTokenAttached(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	n := New(Config{
		URL:          srv.URL,
		ClientID:     "cid",
		ClientSecret: "secret",
		AuthURL:      tokenSrv.URL,
	})
	require.NoError(t, n.Broadcast(context.Background(), notify.Event{Type: notify.EventIncidentCreated}))
	assert.Equal(t, "Bearer tok-123", auth)
}
