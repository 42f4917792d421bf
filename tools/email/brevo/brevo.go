package brevo

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

const sendURL = "https://api.brevo.com/v3/smtp/email"

// Client sends transactional email through the Brevo API.
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
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// Send delivers the message and returns the Brevo message id.
func (c *Client) Send(ctx context.Context, msg models.Message) (string, error) {
	// https://developers.brevo.com/reference/sendtransacemail
	body, err := json.Marshal(sendRequest{
		Sender:      address{Name: msg.SenderName, Email: msg.SenderEmail},
		To:          []address{{Email: msg.ToEmail}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLContent,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		errMsg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(errMsg)}
	}

	var result struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing send response: %w", err)
	}
	return result.MessageID, nil
}
