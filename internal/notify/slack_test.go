package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSlack_PostsBlocks(t *testing.T) {
	var got slackMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), "Problem detected: api", "api (https://api.example): error (503)\n")
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if len(got.Blocks) != 2 || got.Blocks[0].Type != "header" || got.Blocks[0].Text.Text != "Problem detected: api" {
		t.Fatalf("header block wrong: %+v", got.Blocks)
	}
	if want := "```api (https://api.example): error (503)```"; got.Blocks[1].Text.Text != want {
		t.Fatalf("section = %q, want %q", got.Blocks[1].Text.Text, want)
	}
	if !strings.HasPrefix(got.Text, "Problem detected: api\n") {
		t.Fatalf("fallback text = %q", got.Text)
	}
}

func TestSlack_Non2xxCarriesReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), "X", "Y")
	if err == nil || !strings.Contains(err.Error(), "invalid_token") {
		t.Fatalf("expected error with reply body, got %v", err)
	}
}

func TestSlack_NoWebhook(t *testing.T) {
	if err := NewSlack("").Send(context.Background(), "X", "Y"); err == nil {
		t.Fatalf("expected error without webhook")
	}
}

func TestSlackMessage_Truncates(t *testing.T) {
	m := slackMessageFor(strings.Repeat("t", 400), strings.Repeat("b", 5000))
	if n := len([]rune(m.Blocks[0].Text.Text)); n != slackHeaderMax {
		t.Fatalf("header len %d", n)
	}
	if n := len([]rune(m.Blocks[1].Text.Text)); n > slackSectionMax {
		t.Fatalf("section len %d", n)
	}
}
