package distribution

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"mpfeed/config"
	"mpfeed/internal/resilience/retry"
	"mpfeed/models"
	emailmodels "mpfeed/tools/email/models"
)

type stubSender struct {
	msgs     []emailmodels.Message
	failures int
	err      error
}

func (s *stubSender) Send(ctx context.Context, msg emailmodels.Message) (string, error) {
	s.msgs = append(s.msgs, msg)
	if s.failures > 0 {
		s.failures--
		return "", &retry.HTTPError{StatusCode: 503, Message: "unavailable"}
	}
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		Provider:    "brevo",
		SenderName:  "MP News Feed",
		SenderEmail: "feed@example.org",
		TeamEmail:   "team@example.org",
		MaxRetries:  3,
	}
}

func testAgents() *config.AgentsFile {
	return &config.AgentsFile{
		Agents: map[string]config.AgentDef{
			config.AgentEmailDistributor: {Role: "email distributor"},
		},
		Tasks: map[string]config.TaskDef{
			config.TaskDistributeReport: {
				Agent:       config.AgentEmailDistributor,
				Description: "Send the report for {date_range} to {team_email}.",
				Subject:     "MP News Feed: {date_range}",
			},
		},
	}
}

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDistribute(t *testing.T) {
	sender := &stubSender{}
	svc := NewService(testEmailConfig(), testAgents(), sender, discard())

	var ok *bool
	svc.SetEmailObserver(func(success bool) { ok = &success })

	id, err := svc.Distribute(context.Background(), "# Report\n\nBody.", models.RunInputs{
		DateRange: "Jan 01 - Sep 01, 2025",
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if id != "msg-1" {
		t.Errorf("message id = %q", id)
	}
	if ok == nil || !*ok {
		t.Error("observer not called with success")
	}

	if len(sender.msgs) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.msgs))
	}
	msg := sender.msgs[0]
	if msg.Subject != "MP News Feed: Jan 01 - Sep 01, 2025" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.ToEmail != "team@example.org" || msg.SenderEmail != "feed@example.org" {
		t.Errorf("addressing = %+v", msg)
	}
	if !strings.Contains(msg.HTMLContent, "<h1>Report</h1>") {
		t.Errorf("report not converted to HTML: %q", msg.HTMLContent)
	}
}

func TestDistributeNonRetryableFailure(t *testing.T) {
	sender := &stubSender{err: &retry.HTTPError{StatusCode: 401, Message: "bad key"}}
	svc := NewService(testEmailConfig(), testAgents(), sender, discard())

	var ok *bool
	svc.SetEmailObserver(func(success bool) { ok = &success })

	_, err := svc.Distribute(context.Background(), "# Report", models.RunInputs{DateRange: "r"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(sender.msgs) != 1 {
		t.Errorf("sends = %d, want 1 (401 must not be retried)", len(sender.msgs))
	}
	if ok == nil || *ok {
		t.Error("observer not called with failure")
	}
}

func TestDistributeRetriesTransientFailure(t *testing.T) {
	sender := &stubSender{failures: 1}
	svc := NewService(testEmailConfig(), testAgents(), sender, discard())

	id, err := svc.Distribute(context.Background(), "# Report", models.RunInputs{DateRange: "r"})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if id != "msg-1" {
		t.Errorf("message id = %q", id)
	}
	if len(sender.msgs) != 2 {
		t.Errorf("sends = %d, want 2", len(sender.msgs))
	}
}

func TestDistributeSubjectFallback(t *testing.T) {
	agents := testAgents()
	task := agents.Tasks[config.TaskDistributeReport]
	task.Subject = ""
	agents.Tasks[config.TaskDistributeReport] = task

	sender := &stubSender{}
	svc := NewService(testEmailConfig(), agents, sender, discard())
	if _, err := svc.Distribute(context.Background(), "# Report", models.RunInputs{DateRange: "Jan 01 - Sep 01, 2025"}); err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if got := sender.msgs[0].Subject; got != "MP News Feed: Jan 01 - Sep 01, 2025" {
		t.Errorf("fallback subject = %q", got)
	}
}
