package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

type pattern struct {
	kind string
	re   *regexp.Regexp
}

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []pattern{
	{"api-key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)[ \t]*[:=][ \t]*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)[ \t]*[:=][ \t]*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)[ \t]*[:=][ \t]*["']([^"'\n]{8,})["']`)},
	{"bearer", regexp.MustCompile(`(?i)Bearer[ \t]+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN[ \t]+(RSA[ \t]+|EC[ \t]+|OPENSSH[ \t]+)?PRIVATE KEY-----`)},
	{"github", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"hex", regexp.MustCompile(`(?i)(key|secret|token)[ \t]*[:=][ \t]*["']?[0-9a-f]{32,}["']?`)},
}

// Redactor applies secret and path policies to file content.
type Redactor struct {
	secrets bool
	paths   []string
}

// New returns a Redactor. With secrets false only path policies apply.
func New(secrets bool, paths []string) *Redactor {
	return &Redactor{secrets: secrets, paths: paths}
}

// Result describes what Apply changed.
type Result struct {
	Text       string
	ByPath     bool
	Redactions int
}

// Apply scrubs content belonging to path. A nil Redactor returns content
// unchanged.
func (r *Redactor) Apply(path, content string) Result {
	if r == nil {
		return Result{Text: content}
	}
	if ShouldRedactPath(path, r.paths) {
		return Result{Text: placeholder + " (file content redacted by path policy)\n", ByPath: true}
	}
	if !r.secrets {
		return Result{Text: content}
	}
	text, n := scrub(content)
	return Result{Text: text, Redactions: n}
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	out, _ := scrub(text)
	return out
}

func scrub(text string) (string, int) {
	count := 0
	for _, p := range secretPatterns {
		text = p.re.ReplaceAllStringFunc(text, func(string) string {
			count++
			return placeholder
		})
	}
	return text, count
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		// "**/x" also matches x against the base name.
		if clean, ok := strings.CutPrefix(pattern, "**/"); ok {
			if matched, err := filepath.Match(clean, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}
