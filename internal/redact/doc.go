// Package redact scrubs secrets from file content before it is embedded in a
// semantic review prompt.
//
// Detection uses regex heuristics for common secret shapes: API keys, JWTs,
// private key headers, AWS credentials, bearer tokens and provider-specific
// tokens (Anthropic, OpenAI, GitHub, Slack). Matches are replaced in place
// and never span a newline, so line numbers in the scrubbed text still line
// up with the original file.
//
// Files whose paths match a configured glob are replaced wholesale.
package redact
