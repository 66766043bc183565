// Package webhook forwards notification events to an external endpoint, such
// as the city's emergency operations center, as JSON POST requests.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/infra/logger"
)

// Config holds the webhook endpoint and optional client-credentials
// authentication. When AuthURL is empty requests go out unauthenticated.
type Config struct {
	URL          string        `json:"url"`
	ClientID     string        `json:"client_id"`
	ClientSecret string        `json:"client_secret"`
	AuthURL      string        `json:"auth_url"`
	Timeout      time.Duration `json:"timeout"`
}

// Notifier delivers events as HTTP POSTs. It implements notify.Notifier;
// station-targeted events carry the station id in the payload rather than a
// separate channel.
type Notifier struct {
	url    string
	client *http.Client
	log    logger.Logger
}

// New creates a Notifier. With AuthURL set, the HTTP client obtains and
// refreshes bearer tokens via the OAuth2 client-credentials flow.
func New(cfg Config) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if cfg.AuthURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.AuthURL,
		}
		client = cc.Client(context.Background())
		client.Timeout = timeout
	}
	return &Notifier{url: cfg.URL, client: client, log: logger.New("webhook-notifier")}
}

func (n *Notifier) post(ctx context.Context, ev notify.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// Broadcast posts the event to the configured endpoint.
func (n *Notifier) Broadcast(ctx context.Context, ev notify.Event) error {
	return n.post(ctx, ev)
}

// ToStation posts the event; the receiver routes on the payload's station id.
func (n *Notifier) ToStation(ctx context.Context, stationID string, ev notify.Event) error {
	ev.StationID = stationID
	return n.post(ctx, ev)
}

// Close is a no-op; the HTTP client holds no long-lived connection state
// worth tearing down explicitly.
func (n *Notifier) Close() error { return nil }
