// Package domain holds the request-scoped concepts of the summarization
// pipeline. It has no transport (HTTP) or infrastructure (LLM, PDF) concerns.
package domain
