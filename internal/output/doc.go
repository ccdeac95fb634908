// Package output renders a review.Report as text, JSON, Markdown or SARIF.
//
// The text writer colors severities when writing to a terminal. Markdown is
// shaped for pull-request comments. SARIF v2.1.0 output carries one result
// per issue, keyed by the issue's rule id.
package output
