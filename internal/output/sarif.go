package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/tally/internal/review"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	data, err := json.MarshalIndent(buildSARIF(report), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitzero"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLocation   `json:"locations,omitempty"`
	Fixes      []sarifFix        `json:"fixes,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

func buildSARIF(report *review.Report) sarifLog {
	var rules []sarifRule
	seen := make(map[string]bool)
	results := []sarifResult{}

	for _, f := range report.Files {
		res := f.Result
		fixes := suggestionsByLine(res.Suggestions)

		for _, iss := range res.Issues {
			id := ruleID(iss)
			if !seen[id] {
				seen[id] = true
				rules = append(rules, sarifRule{
					ID:               id,
					ShortDescription: sarifMessage{Text: id},
					DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(iss.Severity)},
					Properties:       sarifRuleProperties{Tags: []string{string(iss.Source)}},
				})
			}

			result := sarifResult{
				RuleID:  id,
				Level:   severityToLevel(iss.Severity),
				Message: sarifMessage{Text: iss.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: res.File},
						Region:           sarifRegion{StartLine: max(iss.Line, 1), StartColumn: iss.Column},
					},
				}},
				Properties: map[string]string{"source": string(iss.Source)},
			}
			for _, s := range fixes[iss.Line] {
				if s.Rule == "" || s.Rule == iss.Rule {
					result.Fixes = append(result.Fixes, sarifFix{Description: sarifMessage{Text: s.Message}})
				}
			}
			results = append(results, result)
		}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "tally",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/tally",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

func suggestionsByLine(suggestions []review.Suggestion) map[int][]review.Suggestion {
	m := make(map[int][]review.Suggestion)
	for _, s := range suggestions {
		m[s.Line] = append(m[s.Line], s)
	}
	return m
}

// severityToLevel maps tally severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return "error"
	case review.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// ruleID is "tally/<source>/<rule>", or "tally/<source>" for issues
// without a rule id.
func ruleID(iss review.Issue) string {
	if iss.Rule == "" {
		return "tally/" + string(iss.Source)
	}
	return "tally/" + string(iss.Source) + "/" + iss.Rule
}
