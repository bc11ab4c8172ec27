package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koopa0/concierge/internal/turn"
)

const extractSystem = `You classify technical support conversations.
From the conversation, extract the product category the customer is
asking about. Output JSON only:
{"main_category": "...", "sub_category": "..."}
Use empty strings for anything the conversation does not reveal.`

// ExtractUserInfo extracts a candidate product category from the
// conversation history.
func (c *Client) ExtractUserInfo(ctx context.Context, history []string) (turn.UserInfo, error) {
	text, err := c.generate(ctx, extractSystem, formatHistory(history))
	if err != nil {
		return turn.UserInfo{}, err
	}
	return parseUserInfo(text)
}

func parseUserInfo(text string) (turn.UserInfo, error) {
	var out struct {
		MainCategory string `json:"main_category"`
		SubCategory  string `json:"sub_category"`
	}
	cleaned := stripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return turn.UserInfo{}, fmt.Errorf("parsing user info: %w (raw: %q)", err, truncate(cleaned, 200))
	}
	return turn.UserInfo{
		MainCategory: strings.TrimSpace(out.MainCategory),
		SubCategory:  strings.TrimSpace(out.SubCategory),
	}, nil
}

const groupSystem = `You segment a conversation into topic groups. Each
group holds consecutive statements about one coherent topic, in their
original order, with the newest group last. Output JSON only:
[{"statements": ["...", "..."]}, ...]`

// GroupSentences collapses a multi-message history into coherent topic
// groups.
func (c *Client) GroupSentences(ctx context.Context, history []string) ([]turn.SentenceGroup, error) {
	text, err := c.generate(ctx, groupSystem, formatHistory(history))
	if err != nil {
		return nil, err
	}
	return parseGroups(text)
}

func parseGroups(text string) ([]turn.SentenceGroup, error) {
	var raw []struct {
		Statements []any `json:"statements"`
	}
	cleaned := stripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("parsing sentence groups: %w (raw: %q)", err, truncate(cleaned, 200))
	}

	groups := make([]turn.SentenceGroup, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, turn.SentenceGroup{Statements: g.Statements})
	}
	return groups, nil
}

const followUpSystem = `You decide whether a new customer question
continues the previous exchange or starts a new topic. Output JSON only:
{"is_follow_up": true|false, "confidence": 0.0-1.0}`

// Detect decides whether the new question continues the previous one.
func (c *Client) Detect(ctx context.Context, req turn.FollowUpRequest) (turn.FollowUpResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Previous question: %s\n", req.PrevQuestion)
	if req.PrevAnswer != "" {
		fmt.Fprintf(&b, "Previous answer: %s\n", req.PrevAnswer)
	}
	if len(req.PrevRefs) > 0 {
		fmt.Fprintf(&b, "Previous references: %s\n", strings.Join(req.PrevRefs, ", "))
	}
	fmt.Fprintf(&b, "New question: %s", req.NewQuestion)

	text, err := c.generate(ctx, followUpSystem, b.String())
	if err != nil {
		return turn.FollowUpResult{}, err
	}
	return parseFollowUp(text)
}

func parseFollowUp(text string) (turn.FollowUpResult, error) {
	var out struct {
		IsFollowUp bool    `json:"is_follow_up"`
		Confidence float64 `json:"confidence"`
	}
	cleaned := stripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return turn.FollowUpResult{}, fmt.Errorf("parsing follow-up verdict: %w (raw: %q)", err, truncate(cleaned, 200))
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return turn.FollowUpResult{IsFollowUp: out.IsFollowUp, Confidence: out.Confidence}, nil
}

// formatHistory renders the history for a prompt, oldest first.
func formatHistory(history []string) string {
	var b strings.Builder
	b.WriteString("Conversation, oldest first:\n")
	for i, msg := range history {
		fmt.Fprintf(&b, "%d. %s\n", i+1, msg)
	}
	return b.String()
}
