package heuristic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/tally/internal/review"
)

// Rule ids.
const (
	RuleLineLength   = "line-length"
	RuleNesting      = "max-nesting"
	RuleCyclomatic   = "cyclomatic-complexity"
	RuleFunctions    = "function-count"
	RuleEval         = "no-eval"
	RuleDOMSink      = "no-dom-sink"
	RuleCredential   = "hardcoded-credential"
	RuleTimeInLoop   = "date-in-loop"
	RuleDebugPrint   = "no-debug-print"
	RuleDebugger     = "no-debugger"
	RuleTodo         = "todo"
	RuleMagicNumber  = "magic-number"
	RuleEmptyHandler = "empty-handler"
	RuleUnusedImport = "unused-import"
)

// Thresholds.
const (
	maxLineLength      = 120
	maxLineLengthHits  = 3
	maxNestingDepth    = 5
	maxCyclomatic      = 10
	maxFunctions       = 15
	loopLookahead      = 5
	handlerLookahead   = 10
	magicNumberMinimum = 100
)

var (
	branchKeywordRe = regexp.MustCompile(`\b(if|for|while|case|catch)\b`)
	functionDeclRe  = regexp.MustCompile(`\bfunction\b|\bfunc\b|\bdef\b|=>`)
	evalRe          = regexp.MustCompile(`\beval\s*\(|\bnew\s+Function\s*\(`)
	domSinkRe       = regexp.MustCompile(`\.(innerHTML|outerHTML)\s*=[^=]|\bdocument\.write(ln)?\s*\(`)
	credentialRe    = regexp.MustCompile(`(?i)\b\w*(password|passwd|secret|key|token)\w*["']?\s*(:=|=|:)\s*["'][^"']+["']`)
	loopRe          = regexp.MustCompile(`\b(for|while)\b`)
	timeCallRe      = regexp.MustCompile(`\bnew\s+Date\s*\(|\bDate\.now\s*\(|\btime\.Now\s*\(`)
	debugPrintRe    = regexp.MustCompile(`\bconsole\.(log|debug|trace|info)\s*\(|\bfmt\.Print(ln|f)?\s*\(`)
	debuggerRe      = regexp.MustCompile(`^\s*debugger\s*;?\s*$`)
	todoRe          = regexp.MustCompile(`\b(TODO|FIXME)\b`)
	magicNumberRe   = regexp.MustCompile(`(^|[^\w.])(\d{3,})\b`)
	catchRe         = regexp.MustCompile(`\bcatch\b\s*(\([^)]*\))?\s*\{(.*)$`)
	exceptRe        = regexp.MustCompile(`^\s*except\b[^:]*:\s*(#.*)?$`)
	constDeclRe     = regexp.MustCompile(`^\s*(export\s+)?const\b`)
)

func issue(sev review.Severity, line int, rule, msg string) review.Issue {
	return review.Issue{Severity: sev, Line: line, Message: msg, Rule: rule, Source: review.SourceHeuristic}
}

func suggestion(line int, rule, msg string) review.Suggestion {
	return review.Suggestion{Line: line, Message: msg, Rule: rule, Source: review.SourceHeuristic}
}

func isComment(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "//") ||
		strings.HasPrefix(t, "#") ||
		strings.HasPrefix(t, "/*") ||
		strings.HasPrefix(t, "*")
}

// stripTrailingComment drops a trailing // comment.
func stripTrailingComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func checkLineLength(lines []string, f *Findings) {
	hits := 0
	for i, line := range lines {
		n := utf8.RuneCountInString(line)
		if n <= maxLineLength {
			continue
		}
		f.add(issue(review.SeverityWarning, i+1, RuleLineLength, fmt.Sprintf("Line too long (%d characters)", n)),
			suggestion(i+1, RuleLineLength, fmt.Sprintf("Split this line to stay within %d characters", maxLineLength)))
		hits++
		if hits == maxLineLengthHits {
			return
		}
	}
}

func checkComplexity(lines []string, f *Findings) {
	depth, maxDepth := 0, 0
	branches, functions := 0, 0
	for _, line := range lines {
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth > maxDepth {
			maxDepth = depth
		}
		branches += len(branchKeywordRe.FindAllStringIndex(line, -1))
		branches += strings.Count(line, "&&") + strings.Count(line, "||")
		functions += len(functionDeclRe.FindAllStringIndex(line, -1))
	}

	if maxDepth > maxNestingDepth {
		f.add(issue(review.SeverityWarning, 1, RuleNesting,
			fmt.Sprintf("Maximum nesting depth of %d exceeds %d", maxDepth, maxNestingDepth)),
			suggestion(1, RuleNesting, "Flatten nested blocks with early returns or helper functions"))
	}
	if branches > maxCyclomatic {
		f.add(issue(review.SeverityWarning, 1, RuleCyclomatic,
			fmt.Sprintf("Cyclomatic complexity of %d exceeds %d", branches, maxCyclomatic)),
			suggestion(1, RuleCyclomatic, "Split branching logic into smaller functions"))
	}
	if functions > maxFunctions {
		f.add(issue(review.SeverityWarning, 1, RuleFunctions,
			fmt.Sprintf("File declares %d functions, more than %d", functions, maxFunctions)),
			suggestion(1, RuleFunctions, "Split this file by responsibility"))
	}
}

func checkSecurity(lines []string, f *Findings) {
	for i, line := range lines {
		if isComment(line) {
			continue
		}
		if evalRe.MatchString(line) {
			f.add(issue(review.SeverityError, i+1, RuleEval, "Dynamic code execution"),
				suggestion(i+1, RuleEval, "Avoid eval and new Function; parse data explicitly"))
		}
		if domSinkRe.MatchString(line) {
			f.add(issue(review.SeverityWarning, i+1, RuleDOMSink, "Unsafe DOM sink"),
				suggestion(i+1, RuleDOMSink, "Use textContent or sanitize markup before inserting it"))
		}
		if credentialRe.MatchString(line) {
			f.add(issue(review.SeverityWarning, i+1, RuleCredential, "Possible hardcoded credential"),
				suggestion(i+1, RuleCredential, "Load credentials from the environment or a secret store"))
		}
	}
}

func checkPerformance(lines []string, f *Findings) {
	flagged := make(map[int]bool)
	for i, line := range lines {
		if isComment(line) || !loopRe.MatchString(line) {
			continue
		}
		for j := i + 1; j <= i+loopLookahead && j < len(lines); j++ {
			if flagged[j] || !timeCallRe.MatchString(lines[j]) {
				continue
			}
			flagged[j] = true
			f.add(issue(review.SeverityWarning, j+1, RuleTimeInLoop, "Time value constructed inside a loop"),
				suggestion(j+1, RuleTimeInLoop, "Read the time once before the loop"))
		}
	}

	for i, line := range lines {
		if debugPrintRe.MatchString(line) && !isComment(line) {
			f.add(issue(review.SeverityInfo, i+1, RuleDebugPrint, "Debug print statement"),
				suggestion(i+1, RuleDebugPrint, "Remove debug output or route it through a logger"))
		}
	}

	for i, line := range lines {
		if debuggerRe.MatchString(line) {
			f.add(issue(review.SeverityWarning, i+1, RuleDebugger, "Debugger statement"),
				suggestion(i+1, RuleDebugger, "Remove the debugger statement"))
		}
	}
}

func checkBestPractice(lines []string, f *Findings) {
	for i, line := range lines {
		if m := todoRe.FindString(line); m != "" {
			f.add(issue(review.SeverityWarning, i+1, RuleTodo, fmt.Sprintf("Unresolved %s marker", m)))
		}
	}

	for i, line := range lines {
		if isComment(line) || constDeclRe.MatchString(line) {
			continue
		}
		if n, ok := firstMagicNumber(stripTrailingComment(line)); ok {
			f.add(issue(review.SeverityInfo, i+1, RuleMagicNumber, fmt.Sprintf("Magic number %d", n)),
				suggestion(i+1, RuleMagicNumber, fmt.Sprintf("Extract %d into a named constant", n)))
		}
	}

	for i := range lines {
		if emptyHandler(lines, i) {
			f.add(issue(review.SeverityWarning, i+1, RuleEmptyHandler, "Empty handler in catch block"),
				suggestion(i+1, RuleEmptyHandler, "Handle, log, or rethrow the caught error"))
		}
	}

	checkUnusedImports(lines, f)
}

func firstMagicNumber(line string) (int, bool) {
	for _, m := range magicNumberRe.FindAllStringSubmatch(line, -1) {
		n, err := strconv.Atoi(m[2])
		if err == nil && n > magicNumberMinimum {
			return n, true
		}
	}
	return 0, false
}

// emptyHandler reports whether lines[i] opens a catch/except block with no
// statement in it.
func emptyHandler(lines []string, i int) bool {
	line := lines[i]
	if isComment(line) {
		return false
	}
	if m := catchRe.FindStringSubmatch(line); m != nil {
		rest := strings.TrimSpace(m[2])
		if strings.HasPrefix(rest, "}") {
			return true
		}
		if rest != "" && !strings.HasPrefix(rest, "//") && !strings.HasPrefix(rest, "/*") {
			return false
		}
	} else if !exceptRe.MatchString(line) {
		return false
	}

	for j := i + 1; j <= i+handlerLookahead && j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" || isComment(t) || strings.HasPrefix(t, "*/") {
			continue
		}
		return strings.HasPrefix(t, "}") || t == "pass"
	}
	return true
}
