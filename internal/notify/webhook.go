package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mwehner/immowatch/internal/domain/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook POSTs the listing batch as JSON to the endpoint configured on
// the binding.
type Webhook struct {
	httpClient HTTPClient
}

func NewWebhook() *Webhook {
	return &Webhook{httpClient: &http.Client{}}
}

func (w *Webhook) SetHTTPClient(client HTTPClient) {
	w.httpClient = client
}

func (w *Webhook) ID() string {
	return "webhook"
}

type webhookPayload struct {
	JobID    string           `json:"jobId"`
	JobName  string           `json:"jobName"`
	Listings []models.Listing `json:"listings"`
}

func (w *Webhook) Send(ctx context.Context, msg Message, config map[string]string) error {

	endpoint := config["url"]
	if endpoint == "" {
		return errors.New("webhook binding is missing url")
	}

	payload, err := json.Marshal(webhookPayload{JobID: msg.JobID, JobName: msg.JobName, Listings: msg.Listings})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "error sending request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("webhook failed with status %v", resp.StatusCode)
	}
	return nil
}
