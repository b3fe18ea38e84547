// Package email sends operational alert and summary emails via the Resend
// HTTP API. Resend has no official Go client, so this is a small
// hand-built net/http wrapper around its REST endpoint.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Client sends plain-text emails through Resend. All sends are best-effort:
// callers must never let a send failure abort the calling workflow.
type Client struct {
	apiKey    string
	alertTo   string
	fromEmail string
	http      *http.Client
}

// NewClient builds a Resend email client. apiKey/alertTo/fromEmail come from
// configuration; an empty apiKey or alertTo makes Send a no-op, so a
// workflow can run in environments with no email transport configured.
func NewClient(apiKey, alertTo, fromEmail string) *Client {
	return &Client{
		apiKey:    apiKey,
		alertTo:   alertTo,
		fromEmail: fromEmail,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send delivers a plain-text email. Returns an error on transport/API
// failure so the caller can log it; callers must not propagate the error
// up through a workflow's terminal status.
func (c *Client) Send(ctx context.Context, subject, body string) error {
	if c.apiKey == "" || c.alertTo == "" {
		return nil
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.fromEmail,
		To:      []string{c.alertTo},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("marshaling resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending email via resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend send failed with status %d", resp.StatusCode)
	}
	return nil
}
