// Package llm asks language models to pick the answer of a multiple-choice
// question.
//
// A Client sends one system and one user prompt and returns the raw reply.
// Anthropic and Gemini implement it; WithRetry adds exponential backoff for
// transient failures. ParseAnswer turns a reply into one of the question's
// position identifiers, and Guess is the model-free fallback.
package llm
