package sendgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mpfeed/internal/resilience/retry"
	"mpfeed/tools/email/models"
)

const sendURL = "https://api.sendgrid.com/v3/mail/send"

// Client sends transactional email through the SendGrid v3 API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: sendURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, baseURL string, timeout time.Duration) *Client {
	c := New(apiKey, timeout)
	c.baseURL = baseURL
	return c
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	Personalizations []struct {
		To []address `json:"to"`
	} `json:"personalizations"`
	From    address `json:"from"`
	Subject string  `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// Send delivers the message and returns SendGrid's message id header.
func (c *Client) Send(ctx context.Context, msg models.Message) (string, error) {
	// https://www.twilio.com/docs/sendgrid/api-reference/mail-send
	payload := sendRequest{
		From:    address{Email: msg.SenderEmail, Name: msg.SenderName},
		Subject: msg.Subject,
	}
	payload.Personalizations = []struct {
		To []address `json:"to"`
	}{{To: []address{{Email: msg.ToEmail}}}}
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: msg.HTMLContent}}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		errMsg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(errMsg)}
	}

	return resp.Header.Get("X-Message-Id"), nil
}
