// Package semantic asks a text-completion backend to review one file and
// turns its free-form reply into review issues.
//
// The prompt carries the file path, a language label guessed from the
// extension, the line-numbered (and secret-scrubbed) content, and a strict
// instruction to answer with a JSON object of issues, suggestions, a summary
// and an optional score. The backend is called exactly once per review; retry
// policy belongs to the transport.
//
// Replies are parsed defensively. Code fences are stripped, the largest
// balanced {...} span is extracted, and raw newlines and tabs inside string
// literals are escaped before decoding. If strict decoding still fails, a
// looser pass recovers the "issues" array on its own, and if that fails too
// the result degrades to an empty review summarized as "parse failed".
// Parsing never returns an error. Every issue and suggestion is stamped with
// the semantic source whatever the payload claims.
package semantic
