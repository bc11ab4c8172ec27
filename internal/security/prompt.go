// Package security screens customer-supplied text before it reaches the
// generative model. Support messages are untrusted input; the inspector
// flags common prompt-injection patterns so they can be logged and
// audited. Detection is best-effort: sophisticated attacks can evade
// pattern matching, so the system prompts never grant the user text any
// instruction authority regardless of the verdict.
package security

import (
	"regexp"
	"strings"
	"unicode"
)

// InspectionResult describes what the inspector found in one input.
type InspectionResult struct {
	Safe     bool
	Patterns []string // matched pattern sources, empty when safe
}

// PromptInspector detects prompt-injection attempts in customer text.
// Safe for concurrent use.
type PromptInspector struct {
	patterns []*regexp.Regexp
}

// NewPromptInspector creates an inspector with the default pattern set.
func NewPromptInspector() *PromptInspector {
	patterns := []string{
		// System prompt override attempts
		`(?i)ignore\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?|rules?)`,
		`(?i)disregard\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?)`,
		`(?i)forget\s+(all\s+)?(previous|above|prior)\s+(instructions?|context)`,

		// Role reassignment
		`(?i)^(pretend|act|behave|imagine)\s+(you\s+are|to\s+be|as\s+if|like)`,
		`(?i)^you\s+are\s+now\s+a`,
		`(?i)^from\s+now\s+on,?\s+you\s+(are|will|must)`,

		// Instruction injection
		`(?i)^new\s+(instruction|task|rule)\s*:`,
		`(?i)^admin\s*(mode|override|command)\s*:`,

		// Delimiter escapes
		`(?i)</?(system|instruction|prompt)>`,
		`(?i)---+\s*(system|new\s+instruction)`,

		// Jailbreaks
		`(?i)do\s+anything\s+now`,
		`(?i)jailbreak`,
		`(?i)bypass\s+(safety|filter|restrictions?)`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return &PromptInspector{patterns: compiled}
}

// Inspect checks input against the pattern set.
func (v *PromptInspector) Inspect(input string) InspectionResult {
	normalized := normalizeInput(input)

	var detected []string
	for _, re := range v.patterns {
		if re.MatchString(normalized) {
			detected = append(detected, re.String())
		}
	}

	return InspectionResult{
		Safe:     len(detected) == 0,
		Patterns: detected,
	}
}

// normalizeInput strips zero-width and combining characters that could
// split a pattern, and collapses all whitespace to single spaces.
func normalizeInput(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
