package provider

import (
	"testing"

	"mpfeed/config"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"queries": ["a", "b"]}`)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"queries": ["a", "b"]}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	resp := "```json\n{\"mp_name\": \"Anna\"}\n```"
	got, err := ExtractJSON(resp)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"mp_name": "Anna"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONProseWrapped(t *testing.T) {
	resp := `Here is the result you asked for:

{"filtered_items": [{"score": 7}]}

Let me know if you need anything else.`
	got, err := ExtractJSON(resp)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"filtered_items": [{"score": 7}]}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	resp := `{"summary": "budget {draft} rose 5%", "note": "a \"quoted\" brace }"}`
	got, err := ExtractJSON(resp)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != resp {
		t.Errorf("got %q, want full object", got)
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	if _, err := ExtractJSON("no json here"); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestExtractJSONUnbalanced(t *testing.T) {
	if _, err := ExtractJSON(`{"open": "never closed`); err == nil {
		t.Fatal("expected error for unbalanced JSON")
	}
}

func TestDecodeInto(t *testing.T) {
	var out struct {
		Queries []string `json:"queries"`
	}
	resp := "Sure thing.\n```json\n{\"queries\": [\"x\", \"y\"]}\n```"
	if err := DecodeInto(resp, &out); err != nil {
		t.Fatalf("DecodeInto: %v", err)
	}
	if len(out.Queries) != 2 || out.Queries[0] != "x" {
		t.Errorf("decoded %+v", out)
	}
}

func TestNewProviderUnsupported(t *testing.T) {
	if _, err := NewProvider("mistral", config.LLMConfig{}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewProviderMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewProvider(OpenAI, config.LLMConfig{}); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}
