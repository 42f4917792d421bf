package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mpfeed/tools/email/models"
)

func TestSend(t *testing.T) {
	var gotAuth string
	var gotReq sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("X-Message-Id", "sg-42")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewWithBaseURL("secret", srv.URL, 5*time.Second)
	id, err := c.Send(context.Background(), models.Message{
		SenderName:  "MP News Feed",
		SenderEmail: "feed@example.org",
		ToEmail:     "team@example.org",
		Subject:     "weekly report",
		HTMLContent: "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if !strings.HasPrefix(gotAuth, "Bearer secret") {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if id != "sg-42" {
		t.Errorf("message id = %q", id)
	}
	if len(gotReq.Personalizations) != 1 || gotReq.Personalizations[0].To[0].Email != "team@example.org" {
		t.Errorf("personalizations = %+v", gotReq.Personalizations)
	}
	if gotReq.From.Email != "feed@example.org" {
		t.Errorf("from = %+v", gotReq.From)
	}
	if len(gotReq.Content) != 1 || gotReq.Content[0].Type != "text/html" {
		t.Errorf("content = %+v", gotReq.Content)
	}
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad request"}]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", srv.URL, 5*time.Second)
	if _, err := c.Send(context.Background(), models.Message{ToEmail: "team@example.org"}); err == nil {
		t.Fatal("expected error for 400 response")
	}
}
