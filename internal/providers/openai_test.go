package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// completionServer returns a test server that captures the request body
// and replies with the given finish reason and content.
func completionServer(t *testing.T, finish, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"content": content},
					"finish_reason": finish,
				},
			},
			"usage": map[string]any{"total_tokens": 321},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestComplete_Success(t *testing.T) {
	var captured map[string]any
	srv := completionServer(t, "stop", "a fine summary", &captured)
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL, "gpt-4o-mini", 0)
	got, err := c.Complete(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.FinishReason != FinishStop {
		t.Errorf("finish = %q, want stop", got.FinishReason)
	}
	if got.Text != "a fine summary" {
		t.Errorf("text = %q", got.Text)
	}
	if got.TotalTokens != 321 {
		t.Errorf("tokens = %d, want 321", got.TotalTokens)
	}

	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected exactly one system and one user message, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	second, _ := msgs[1].(map[string]any)
	if first["role"] != "system" || first["content"] != "system text" {
		t.Errorf("first message = %v", first)
	}
	if second["role"] != "user" || second["content"] != "user text" {
		t.Errorf("second message = %v", second)
	}
	if captured["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", captured["model"])
	}
}

func TestComplete_FinishReasonPassedThrough(t *testing.T) {
	for _, finish := range []string{FinishLength, FinishContentFilter} {
		srv := completionServer(t, finish, "partial text", nil)
		c := NewOpenAIClient("key", srv.URL, "m", 0)
		got, err := c.Complete(context.Background(), "s", "u")
		srv.Close()
		if err != nil {
			t.Fatalf("finish %q: %v", finish, err)
		}
		if got.FinishReason != finish {
			t.Errorf("finish = %q, want %q", got.FinishReason, finish)
		}
	}
}

func TestComplete_EmptyFinishDefaultsToStop(t *testing.T) {
	srv := completionServer(t, "", "text", nil)
	defer srv.Close()
	c := NewOpenAIClient("key", srv.URL, "m", 0)
	got, err := c.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatal(err)
	}
	if got.FinishReason != FinishStop {
		t.Errorf("finish = %q, want stop", got.FinishReason)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL, "m", 0)
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}

func TestComplete_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // closed on purpose

	c := NewOpenAIClient("key", srv.URL, "m", time.Second)
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for refused connection")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL, "m", 0)
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
