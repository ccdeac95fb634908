package semantic

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/tally/internal/review"
)

const responseFormat = `Respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "issues": [
    {"severity": "error|warning|info", "line": 1, "column": 0, "message": "What is wrong and why it matters", "rule": "optional-short-id"}
  ],
  "suggestions": [
    {"line": 1, "message": "How to improve it", "code": "optional replacement code"}
  ],
  "summary": "One or two sentences about the file",
  "score": 0-10
}

Line numbers refer to the numbered lines below. If there are no issues, return empty arrays.`

var languages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".mjs":   "JavaScript",
	".cjs":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".cc":    "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".tf":    "Terraform",
}

// Language guesses a language label from path's extension.
func Language(path string) string {
	if lang, ok := languages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plain text"
}

// BuildPrompt constructs the review prompt for one file.
func BuildPrompt(path, content string, rules *review.Rules) string {
	var b strings.Builder

	b.WriteString("You are a strict, expert code reviewer. Review the complete source file below for bugs, security issues, performance problems and maintainability concerns.\n\n")
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Language: %s\n", Language(path))

	if section := review.BuildRulesPromptSection(rules); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\n")
	b.WriteString(responseFormat)
	b.WriteString("\n\n--- BEGIN FILE ---\n")
	b.WriteString(numberLines(content))
	b.WriteString("--- END FILE ---\n")

	return b.String()
}

func numberLines(content string) string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return ""
	}
	var b strings.Builder
	for i, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&b, "%4d | %s\n", i+1, line)
	}
	return b.String()
}
