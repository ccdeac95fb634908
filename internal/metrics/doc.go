// Package metrics collects per-run analyzer and cache counters on a private
// Prometheus registry. The CLI prints them in the text exposition format
// when --metrics is set.
package metrics
