package heuristic

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dshills/tally/internal/review"
)

var (
	jsImportRe      = regexp.MustCompile(`^\s*import\s+(.+?)\s+from\s+['"]`)
	goImportOneRe   = regexp.MustCompile(`^\s*import\s+([\w.]+\s+)?"([^"]+)"`)
	goImportSpecRe  = regexp.MustCompile(`^\s*([\w.]+\s+)?"([^"]+)"`)
	goImportOpenRe  = regexp.MustCompile(`^\s*import\s*\(\s*$`)
	pyFromImportRe  = regexp.MustCompile(`^\s*from\s+\S+\s+import\s+(.+)$`)
	pyImportRe      = regexp.MustCompile(`^\s*import\s+([\w.]+)(\s+as\s+(\w+))?\s*$`)
	identRe         = regexp.MustCompile(`^\w+$`)
	goMajorSuffixRe = regexp.MustCompile(`^v\d+$`)
	goDotVersionRe  = regexp.MustCompile(`\.v\d+$`)
)

type importedName struct {
	name string
	line int
}

func checkUnusedImports(lines []string, f *Findings) {
	imports := collectImports(lines)
	for _, imp := range imports {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(imp.name) + `\b`)
		used := false
		for i, line := range lines {
			if i == imp.line || isComment(line) {
				continue
			}
			if re.MatchString(line) {
				used = true
				break
			}
		}
		if !used {
			f.add(issue(review.SeverityWarning, imp.line+1, RuleUnusedImport, fmt.Sprintf("Possibly unused import '%s'", imp.name)),
				suggestion(imp.line+1, RuleUnusedImport, fmt.Sprintf("Remove the import of '%s' if it is not needed", imp.name)))
		}
	}
}

func collectImports(lines []string) []importedName {
	var out []importedName
	inGoBlock := false
	for i, line := range lines {
		if inGoBlock {
			if strings.TrimSpace(line) == ")" {
				inGoBlock = false
				continue
			}
			if m := goImportSpecRe.FindStringSubmatch(line); m != nil {
				out = appendName(out, goImportName(m[1], m[2]), i)
			}
			continue
		}

		switch {
		case goImportOpenRe.MatchString(line):
			inGoBlock = true
		case jsImportRe.MatchString(line):
			for _, n := range jsImportNames(jsImportRe.FindStringSubmatch(line)[1]) {
				out = appendName(out, n, i)
			}
		case goImportOneRe.MatchString(line):
			m := goImportOneRe.FindStringSubmatch(line)
			out = appendName(out, goImportName(m[1], m[2]), i)
		case pyFromImportRe.MatchString(line):
			for _, n := range pyImportNames(pyFromImportRe.FindStringSubmatch(line)[1]) {
				out = appendName(out, n, i)
			}
		case pyImportRe.MatchString(line):
			m := pyImportRe.FindStringSubmatch(line)
			name := m[3]
			if name == "" {
				name = strings.SplitN(m[1], ".", 2)[0]
			}
			out = appendName(out, name, i)
		}
	}
	return out
}

func appendName(out []importedName, name string, line int) []importedName {
	if name == "" || name == "_" || !identRe.MatchString(name) {
		return out
	}
	return append(out, importedName{name: name, line: line})
}

// goImportName returns the identifier a Go import binds.
func goImportName(alias, importPath string) string {
	if alias = strings.TrimSpace(alias); alias != "" {
		if alias == "." {
			return ""
		}
		return alias
	}
	base := path.Base(importPath)
	if goMajorSuffixRe.MatchString(base) {
		base = path.Base(path.Dir(importPath))
	}
	base = goDotVersionRe.ReplaceAllString(base, "")
	return strings.ReplaceAll(base, "-", "")
}

// jsImportNames parses an import clause such as `React, { useState as s }`.
// Default and namespace bindings come before braced names.
func jsImportNames(clause string) []string {
	clause = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(clause), "type "))
	var braced []string
	if open := strings.Index(clause, "{"); open >= 0 {
		if closeIdx := strings.Index(clause, "}"); closeIdx > open {
			braced = strings.Split(clause[open+1:closeIdx], ",")
			clause = clause[:open] + clause[closeIdx+1:]
		}
	}

	var names []string
	for _, part := range strings.Split(clause, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, lastAsName(part))
		}
	}
	for _, spec := range braced {
		names = append(names, lastAsName(spec))
	}
	return names
}

func pyImportNames(list string) []string {
	list = strings.Trim(strings.TrimSpace(list), "()")
	if strings.TrimSpace(list) == "*" {
		return nil
	}
	var names []string
	for _, spec := range strings.Split(list, ",") {
		names = append(names, lastAsName(spec))
	}
	return names
}

// lastAsName returns y for "x as y" and x otherwise.
func lastAsName(spec string) string {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return ""
	}
	if len(fields) >= 3 && fields[len(fields)-2] == "as" {
		return fields[len(fields)-1]
	}
	return fields[0]
}
