// Package i18n provides the fixed localized strings used by the turn
// engine: degraded-mode fallback texts, the generic "tell me more"
// block, and the handoff example prompts.
//
// Lookups are pure functions keyed by locale; there is no mutable
// package state. Unknown locales fall back to English.
package i18n

import "strings"

// Message keys.
const (
	KeyAvatarFallback   = "avatar_fallback"    // neutral avatar utterance when generation degrades
	KeyAskMoreDetail    = "ask_more_detail"    // generic "give me more detail" block text
	KeyClarifyFallback  = "clarify_fallback"   // clarification text when phrasing degrades
	KeyHandoffReference = "handoff_reference"  // lead-in for the best-known article reference
)

// Supported locales.
const (
	LocaleEN   = "en"
	LocaleZhTW = "zh-TW"
)

// catalogs maps normalized locale to its message catalog.
var catalogs = map[string]map[string]string{
	LocaleEN:   messagesEN,
	LocaleZhTW: messagesZhTW,
}

// examplePrompts maps normalized locale to the fixed handoff follow-up
// prompts shown to help the user phrase a more specific question.
var examplePrompts = map[string][]string{
	LocaleEN:   examplePromptsEN,
	LocaleZhTW: examplePromptsZhTW,
}

// normalize maps locale variants onto a supported catalog key.
func normalize(locale string) string {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "zh-tw", "zh_tw", "zh-hant":
		return LocaleZhTW
	default:
		return LocaleEN
	}
}

// T returns the message for key in the given locale, falling back to
// English, then to the key itself for unknown keys.
func T(locale, key string) string {
	if msg, ok := catalogs[normalize(locale)][key]; ok {
		return msg
	}
	if msg, ok := messagesEN[key]; ok {
		return msg
	}
	return key
}

// ExamplePrompts returns the fixed handoff example prompts for a locale.
// The returned slice is a copy; callers may append freely.
func ExamplePrompts(locale string) []string {
	prompts, ok := examplePrompts[normalize(locale)]
	if !ok {
		prompts = examplePromptsEN
	}
	out := make([]string, len(prompts))
	copy(out, prompts)
	return out
}
