package email

import (
	"context"
	"fmt"
	"time"

	"mpfeed/tools/email/brevo"
	"mpfeed/tools/email/models"
	"mpfeed/tools/email/sendgrid"
)

// Sender delivers a message through a transactional email provider and
// returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg models.Message) (string, error)
}

type Provider string

const (
	BrevoProvider    Provider = "brevo"
	SendGridProvider Provider = "sendgrid"
)

// NewSender returns a sender for the named provider. The two providers are
// functionally identical; a missing API key is reported with the environment
// variable that should carry it.
func NewSender(provider Provider, apiKey string, timeout time.Duration) (Sender, error) {
	switch provider {
	case BrevoProvider:
		if apiKey == "" {
			return nil, fmt.Errorf("BREVO_API_KEY environment variable not set")
		}
		return brevo.New(apiKey, timeout), nil
	case SendGridProvider:
		if apiKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY environment variable not set")
		}
		return sendgrid.New(apiKey, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", provider)
	}
}
