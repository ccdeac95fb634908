package review

// Per-severity deductions from a perfect score of 10.
const (
	errorPenalty   = 2.0
	warningPenalty = 1.0
	infoPenalty    = 0.25
)

// PenaltyScore derives a score from issues: 10 minus a fixed deduction per
// issue, clamped to [0, 10] and rounded to one decimal.
func PenaltyScore(issues []Issue) float64 {
	score := 10.0
	for _, iss := range issues {
		switch iss.Severity {
		case SeverityError:
			score -= errorPenalty
		case SeverityWarning:
			score -= warningPenalty
		case SeverityInfo:
			score -= infoPenalty
		}
	}
	return RoundScore(ClampScore(score))
}

// ClampScore limits v to [0, 10].
func ClampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
