package llm

import (
	"context"
	"fmt"
	"strings"
)

const avatarSystem = `You are the friendly support avatar of a technical
support site. Reply in one or two short sentences, in the requested
language, acknowledging the customer's question. Never invent facts.`

// GenerateAvatarReply produces the conversational avatar utterance for
// a turn. content may be empty: the engine issues this call
// speculatively before the knowledge lookup finishes.
func (c *Client) GenerateAvatarReply(ctx context.Context, query, locale, content string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\nCustomer question: %s\n", locale, query)
	if content != "" {
		fmt.Fprintf(&b, "Known answer context:\n%s\n", content)
	}
	b.WriteString("Write the avatar's short spoken reply.")

	return c.generate(ctx, avatarSystem, b.String())
}

const answerSystem = `You are a technical support writer. Compose an
answer to the customer's question using ONLY the provided article
content. Write in the requested language. If the article does not cover
the question, answer with what it does cover. Do not add outside
knowledge.`

// GenerateAnswer composes a grounded answer from article content.
func (c *Client) GenerateAnswer(ctx context.Context, content, query, locale string) (string, error) {
	prompt := fmt.Sprintf("Language: %s\nCustomer question: %s\n\nArticle content:\n%s\n\nWrite the answer.",
		locale, query, content)
	return c.generate(ctx, answerSystem, prompt)
}

const verdictSystem = `You are a strict answer auditor. Given a customer
question, a draft answer, and the source article, output exactly one
character:
1 - the draft is fully supported by the article, contains nothing beyond
    it, is written in the question's language, and does not ask the
    customer for more information
0 - otherwise
Output only the character, nothing else.`

// ValidateAnswer runs the fidelity check over a draft answer. The raw
// model text is normalized to "1"/"0"; anything unrecognizable comes
// back verbatim so the caller's validation loop can retry.
func (c *Client) ValidateAnswer(ctx context.Context, query, draft, content string) (string, error) {
	prompt := fmt.Sprintf("Question:\n%s\n\nDraft answer:\n%s\n\nSource article:\n%s",
		query, draft, content)
	text, err := c.generate(ctx, verdictSystem, prompt)
	if err != nil {
		return "", err
	}
	return normalizeVerdict(text), nil
}

// normalizeVerdict maps loose model output onto the two verdict codes.
func normalizeVerdict(text string) string {
	switch strings.TrimSpace(stripCodeFences(text)) {
	case "1", `"1"`:
		return "1"
	case "0", `"0"`:
		return "0"
	}
	return text
}

const clarifySystem = `You are the support avatar. The customer's
question did not identify a product line. Ask one short, polite
clarification question in the requested language that invites the
customer to pick one of the offered product lines. Mention the offered
names naturally. Output only the question.`

// PhraseClarification phrases the disambiguation message.
func (c *Client) PhraseClarification(ctx context.Context, query, locale string, lines []string) (string, error) {
	prompt := fmt.Sprintf("Language: %s\nCustomer question: %s\nOffered product lines: %s",
		locale, query, strings.Join(lines, ", "))
	return c.generate(ctx, clarifySystem, prompt)
}
