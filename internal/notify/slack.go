package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Slack posts alerts to an incoming webhook as a header block followed by
// the body in a code block. Text carries the same content for clients
// that do not render blocks.
type Slack struct {
	Webhook string
	Client  *http.Client
}

func NewSlack(webhook string) *Slack {
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// slack caps header text at 150 chars and section text at 3000.
const (
	slackHeaderMax  = 150
	slackSectionMax = 3000
)

func slackMessageFor(title, text string) slackMessage {
	body := "```" + truncate(strings.TrimRight(text, "\n"), slackSectionMax-6) + "```"
	return slackMessage{
		Text: title + "\n" + text,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: truncate(title, slackHeaderMax)}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: body}},
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s.Webhook == "" {
		return errors.New("slack: no webhook configured")
	}
	body, err := json.Marshal(slackMessageFor(title, text))
	if err != nil {
		return fmt.Errorf("slack encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer resp.Body.Close()
	reply, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack %s: %s", resp.Status, strings.TrimSpace(string(reply)))
	}
	return nil
}
