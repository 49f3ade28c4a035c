// Package redact removes secrets from code before it is sent to any LLM
// provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private key blocks, AWS access key IDs and secret access keys, bearer
// tokens, credentials embedded in connection strings, and provider-specific
// tokens (Anthropic, OpenAI, Google, GitHub, Slack). Code pasted into a shared
// editor is the usual way such values leak, so the server redacts by default.
package redact
