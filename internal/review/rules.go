package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Rules represents a rules pack loaded from --rules. YAML and JSON files are
// both accepted.
type Rules struct {
	Focus             []string          `yaml:"focus,omitempty" json:"focus,omitempty"`
	SeverityOverrides map[string]string `yaml:"severityOverrides,omitempty" json:"severityOverrides,omitempty" validate:"dive,keys,required,endkeys,oneof=error warning info"`
	Disabled          []string          `yaml:"disabled,omitempty" json:"disabled,omitempty" validate:"dive,required"`
	Required          []RequiredCheck   `yaml:"required,omitempty" json:"required,omitempty" validate:"dive"`
}

// RequiredCheck is a policy check that should always be enforced.
type RequiredCheck struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Text string `yaml:"text" json:"text" validate:"required"`
}

var validate = validator.New()

// LoadRules loads a rules file from fs. Returns nil Rules and nil error if path is empty.
func LoadRules(fs afero.Fs, path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if err := validate.Struct(rules); err != nil {
		return nil, fmt.Errorf("invalid rules file: %w", describeValidation(err))
	}
	return &rules, nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// Enabled reports whether rule is active. A nil pack enables everything.
func (r *Rules) Enabled(rule string) bool {
	if r == nil {
		return true
	}
	for _, d := range r.Disabled {
		if d == rule {
			return false
		}
	}
	return true
}

// SeverityFor returns the override for rule, or def when there is none.
func (r *Rules) SeverityFor(rule string, def Severity) Severity {
	if r == nil {
		return def
	}
	if override, ok := r.SeverityOverrides[rule]; ok {
		if s, ok := ParseSeverity(override); ok {
			return s
		}
	}
	return def
}

// BuildRulesPromptSection returns additional prompt instructions derived from rules.
func BuildRulesPromptSection(rules *Rules) string {
	if rules == nil {
		return ""
	}

	var b strings.Builder

	if len(rules.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize issues in these areas.\n",
			strings.Join(rules.Focus, ", "))
	}

	if len(rules.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range rules.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}

	return b.String()
}

// ApplySeverityOverrides rewrites issue severities by rule id.
func ApplySeverityOverrides(issues []Issue, rules *Rules) []Issue {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return issues
	}
	for i := range issues {
		issues[i].Severity = rules.SeverityFor(issues[i].Rule, issues[i].Severity)
	}
	return issues
}

// OverriddenRules lists rule ids with a severity override, sorted.
func (r *Rules) OverriddenRules() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.SeverityOverrides))
	for id := range r.SeverityOverrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
