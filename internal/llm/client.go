package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/koopa0/concierge/internal/log"
	"github.com/koopa0/concierge/internal/security"
)

// maxResponseBytes limits one generative response (16 KB). Structured
// calls produce far less; a larger response means the model went off
// script.
const maxResponseBytes = 16 * 1024

// ErrEmptyResponse indicates the model returned no text.
var ErrEmptyResponse = errors.New("empty model response")

// Client is the production generative collaborator set. It satisfies
// the turn engine's Generator, UserInfoExtractor, SentenceGrouper, and
// FollowUpDetector contracts.
//
// Client is safe for concurrent use.
type Client struct {
	g         *genkit.Genkit
	modelName string
	inspector *security.PromptInspector
	logger    log.Logger
}

// New creates a Client bound to a model. modelName may be empty to use
// the genkit default model.
func New(g *genkit.Genkit, modelName string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		g:         g,
		modelName: modelName,
		inspector: security.NewPromptInspector(),
		logger:    logger,
	}
}

// generate issues one prompt and returns the trimmed response text.
// Customer text embedded in the prompt is screened first; a detected
// injection attempt is logged for audit but the call still proceeds,
// since the system prompts grant the user text no instruction authority.
func (c *Client) generate(ctx context.Context, system, prompt string) (string, error) {
	if res := c.inspector.Inspect(prompt); !res.Safe {
		c.logger.Warn("possible prompt injection in customer text",
			"patterns", len(res.Patterns),
			"prompt", truncate(prompt, 200))
	}

	opts := []ai.GenerateOption{
		ai.WithPrompt(prompt),
	}
	if system != "" {
		opts = append(opts, ai.WithSystem(system))
	}
	if c.modelName != "" {
		opts = append(opts, ai.WithModelName(c.modelName))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	if len(text) > maxResponseBytes {
		return "", fmt.Errorf("model response too large: %d bytes", len(text))
	}
	return text, nil
}

// stripCodeFences removes ```json ... ``` wrapping from model output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// truncate shortens s to at most n bytes for log fields.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
