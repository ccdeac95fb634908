// Package diagnostic imports diagnostics produced by external linters and
// language servers and normalizes them into review issues.
//
// Diagnostics follow the LSP shape: a 1-4 severity, a 0-based range, a
// message, an optional code and an optional source. The code may arrive as a
// string, a number, or a nested object such as {"value": "E501"}; it is
// always normalized to a string. Positions become 1-based and the rule id is
// prefixed with the source ("eslint:no-undef").
//
// LoadFile reads a JSON file of published diagnostics, either an array of
// {uri, diagnostics} notifications or an object keyed by path, into a
// pathindex.Index so that diagnostics reported under absolute paths or file
// URIs resolve for the repository-relative paths being reviewed.
package diagnostic
