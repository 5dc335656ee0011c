package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			if err := json.Unmarshal(raw, got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okCompletion = `{"id":"c1","object":"chat.completion","created":1,"model":"test-model",
"choices":[{"index":0,"message":{"role":"assistant","content":"How long has it hurt?"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`

func TestOpenAIClient_Chat(t *testing.T) {
	var got capturedRequest
	srv := completionServer(t, http.StatusOK, okCompletion, &got)

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "test-model"})
	reply, err := c.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be kind"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "my head hurts"},
		{Role: "tool", Content: "coerced"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "How long has it hurt?" {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d, want default 1000", got.MaxTokens)
	}
	wantRoles := []string{"system", "assistant", "user", "user"}
	if len(got.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(got.Messages), len(wantRoles))
	}
	for i, r := range wantRoles {
		if got.Messages[i].Role != r {
			t.Errorf("message %d role = %q, want %q", i, got.Messages[i].Role, r)
		}
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, nil)

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL + "/v1"})
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestOpenAIClient_ServerError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil)

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL + "/v1"})
	if _, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
		{Role: RoleAssistant, Content: "r"},
	})
	if system != "a\n\nb" {
		t.Errorf("system = %q", system)
	}
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("turns = %+v", turns)
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted("one", "two")
	ctx := context.Background()
	for _, want := range []string{"one", "two", "two"} {
		got, err := s.Chat(ctx, []Message{{Role: RoleUser, Content: "x"}})
		if err != nil || got != want {
			t.Fatalf("got %q, %v; want %q", got, err, want)
		}
	}
	if n := len(s.Calls()); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}

	boom := errors.New("boom")
	s.FailWith(boom)
	if _, err := s.Chat(ctx, nil); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	empty := NewScripted()
	if got, _ := empty.Chat(ctx, nil); got != defaultScriptedReply {
		t.Errorf("default reply = %q", got)
	}
}
