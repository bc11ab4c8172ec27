// Package turn implements the per-turn orchestration engine for the
// concierge technical-support assistant.
//
// For every conversational turn the engine loads session context,
// consolidates history, resolves the active product scope, searches and
// ranks knowledge-base candidates, and selects exactly one of three
// outcomes: ask the user to disambiguate the product line, answer
// authoritatively from the knowledge base, or hand off to a human agent.
// A speculative avatar-utterance generation call runs concurrently with
// the pipeline and is joined exactly once before the render payload is
// assembled.
//
// The engine is a pure orchestrator: every external effect goes through
// a narrow collaborator interface (see collab.go), so production
// implementations and test doubles satisfy the same contracts. Turn
// state is an immutable Input plus explicit stage results threaded
// through the pipeline; no stage mutates shared state.
//
// Failure policy: lookup collaborator failures degrade to documented
// defaults and the turn proceeds; generative collaborator failures
// degrade only the text of the affected branch. No collaborator failure
// aborts a turn.
package turn
