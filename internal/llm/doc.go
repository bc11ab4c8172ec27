// Package llm holds the genkit-backed generative collaborators: the
// avatar utterance, the grounded answer and its fidelity verdict, the
// clarification message, user-info extraction, sentence grouping, and
// follow-up detection. Structured calls parse model output as JSON
// after stripping code fences; response texture beyond that is left to
// the model.
package llm
