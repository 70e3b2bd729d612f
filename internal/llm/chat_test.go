package llm

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
)

func TestNewLlmChatStoresFieldsVerbatim(t *testing.T) {
	c := NewLlmChat("  key ", "", "sys\nline")
	if c.APIKey() != "  key " || c.SessionID() != "" || c.SystemMessage() != "sys\nline" {
		t.Fatalf("unexpected fields: %q %q %q", c.APIKey(), c.SessionID(), c.SystemMessage())
	}
}

func TestWithModelReturnsSameSession(t *testing.T) {
	cases := []struct{ provider, model string }{
		{"openai", "gpt-4o"},
		{"anthropic", "claude"},
		{"", ""},
		{"any", "any"},
	}
	c := NewLlmChat("k", "s1", "sys")
	for _, tc := range cases {
		if got := c.WithModel(tc.provider, tc.model); got != c {
			t.Fatalf("WithModel(%q, %q) returned a different session", tc.provider, tc.model)
		}
	}
	if c.APIKey() != "k" || c.SessionID() != "s1" || c.SystemMessage() != "sys" {
		t.Fatalf("WithModel mutated the session")
	}
}

func TestSendMessageScenario(t *testing.T) {
	c := NewLlmChat("k", "s1", "sys").WithModel("any", "any")
	resp, err := c.SendMessage(context.Background(), NewUserMessage("hello"))
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(resp.Text), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := map[string]any{
		"name":        "Mocked Loop",
		"description": "This is a mocked response because the AI integration is unavailable locally.",
		"color":       "#FFC93A",
		"reset_rule":  "daily",
		"tasks": []any{
			map[string]any{"description": "Mocked task 1", "type": "recurring"},
			map[string]any{"description": "Mocked task 2", "type": "one-time"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("payload mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestSendMessageIgnoresInput(t *testing.T) {
	inputs := []string{"", "hello", "{\"name\": \"x\"}", "ünïcode ✓"}
	for _, in := range inputs {
		c := NewLlmChat(in, in, in).WithModel(in, in)
		resp, err := c.SendMessage(context.Background(), NewUserMessage(in))
		if err != nil {
			t.Fatalf("send %q: %v", in, err)
		}
		if resp.Text != MockedLoopJSON {
			t.Fatalf("send %q: unexpected text %q", in, resp.Text)
		}
	}
}

func TestSendMessageWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := NewLlmChat("k", "s1", "sys").SendMessage(ctx, NewUserMessage("hello"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Text != MockedLoopJSON {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestSendMessageConcurrent(t *testing.T) {
	c := NewLlmChat("k", "s1", "sys")
	const workers = 32

	var wg sync.WaitGroup
	results := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.SendMessage(context.Background(), NewUserMessage("hi"))
			if err != nil {
				t.Errorf("send: %v", err)
				return
			}
			results[i] = resp.Text
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != MockedLoopJSON {
			t.Fatalf("worker %d got %q", i, r)
		}
	}
}

func TestSendMessageReturnsFreshResponse(t *testing.T) {
	c := NewLlmChat("k", "s1", "sys")
	a, _ := c.SendMessage(context.Background(), UserMessage{})
	b, _ := c.SendMessage(context.Background(), UserMessage{})
	if a == b {
		t.Fatalf("expected distinct response objects")
	}
	a.Text = "changed"
	if b.Text != MockedLoopJSON {
		t.Fatalf("responses share state")
	}
}

func TestSendMessageAsync(t *testing.T) {
	ch := NewLlmChat("k", "s1", "sys").SendMessageAsync(context.Background(), NewUserMessage("hi"))
	resp, ok := <-ch
	if !ok || resp == nil {
		t.Fatalf("expected a response on the channel")
	}
	if resp.Text != MockedLoopJSON {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}
