// Package providers implements the Reviewer interface for each supported LLM
// provider.
//
// Supported providers: Google Gemini (the default, via the genai SDK),
// OpenAI and any OpenAI-compatible local server such as Ollama or LM Studio
// (via go-openai), and Anthropic over its REST API.
//
// All providers share a retry helper with exponential back-off that retries
// rate limits and 5xx responses but never authentication failures.
//
// Use [New] to obtain a Reviewer by provider name and model string.
package providers
