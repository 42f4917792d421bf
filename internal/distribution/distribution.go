// Package distribution implements phase 3: converting the composed report to
// HTML and handing it to a transactional email provider.
package distribution

import (
	"context"
	"fmt"
	"log"

	"mpfeed/config"
	"mpfeed/internal/resilience/retry"
	"mpfeed/models"
	"mpfeed/tools/email"
	emailmodels "mpfeed/tools/email/models"
)

// Service sends the finished report to the team distribution address.
type Service struct {
	cfg     config.EmailConfig
	agents  *config.AgentsFile
	sender  email.Sender
	logger  *log.Logger
	onEmail func(ok bool)
}

// NewService creates the phase-3 distribution service. The distribute_report
// task definition supplies the subject line template.
func NewService(cfg config.EmailConfig, agents *config.AgentsFile, sender email.Sender, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[EMAIL] ", log.LstdFlags)
	}
	return &Service{cfg: cfg, agents: agents, sender: sender, logger: logger}
}

// SetEmailObserver registers a callback invoked after each delivery attempt
// outcome.
func (s *Service) SetEmailObserver(fn func(ok bool)) {
	s.onEmail = fn
}

// Distribute converts the Markdown report to HTML and sends it, retrying
// transient provider failures up to the configured attempt ceiling.
func (s *Service) Distribute(ctx context.Context, report string, inputs models.RunInputs) (string, error) {
	msg := emailmodels.Message{
		SenderName:  s.cfg.SenderName,
		SenderEmail: s.cfg.SenderEmail,
		ToEmail:     s.cfg.TeamEmail,
		Subject:     s.subject(inputs),
		HTMLContent: MarkdownToHTML(report),
	}

	var messageID string
	err := retry.WithBackoff(ctx, retry.EmailConfig(s.cfg.MaxRetries), func() error {
		id, err := s.sender.Send(ctx, msg)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	if err != nil {
		if s.onEmail != nil {
			s.onEmail(false)
		}
		return "", fmt.Errorf("sending report to %s: %w", s.cfg.TeamEmail, err)
	}

	if s.onEmail != nil {
		s.onEmail(true)
	}
	s.logger.Printf("email sent to %s (message id %s)", s.cfg.TeamEmail, messageID)
	return messageID, nil
}

// subject renders the configured subject template, falling back to a fixed
// form when no template is defined.
func (s *Service) subject(inputs models.RunInputs) string {
	if s.agents != nil {
		subject, err := s.agents.SubjectLine(config.TaskDistributeReport, map[string]string{
			"date_range": inputs.DateRange,
			"team_email": s.cfg.TeamEmail,
		})
		if err == nil {
			return subject
		}
		s.logger.Printf("warn: no subject template, using default: %v", err)
	}
	return fmt.Sprintf("MP News Feed: %s", inputs.DateRange)
}
