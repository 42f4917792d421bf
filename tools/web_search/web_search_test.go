package web_search

import (
	"strings"
	"testing"
	"time"
)

func TestNewWebSearcherMissingKey(t *testing.T) {
	_, err := NewWebSearcher(SerperProvider, "", time.Second)
	if err == nil || !strings.Contains(err.Error(), "SERPER_API_KEY") {
		t.Fatalf("err = %v, want SERPER_API_KEY hint", err)
	}

	_, err = NewWebSearcher(BraveProvider, "", time.Second)
	if err == nil || !strings.Contains(err.Error(), "BRAVE_API_KEY") {
		t.Fatalf("err = %v, want BRAVE_API_KEY hint", err)
	}
}

func TestNewWebSearcherUnsupported(t *testing.T) {
	if _, err := NewWebSearcher("bing", "key", time.Second); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewWebSearcherProviders(t *testing.T) {
	for _, p := range []Provider{SerperProvider, BraveProvider} {
		if _, err := NewWebSearcher(p, "key", time.Second); err != nil {
			t.Errorf("NewWebSearcher(%s): %v", p, err)
		}
	}
}
