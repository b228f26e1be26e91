package match

import (
	"fmt"
	"strings"
)

// explanation builds the human-readable narrative shown next to the scores:
// one sentence per condition, in a fixed order, joined with spaces.
// Underscores in document names are left as-is; the UI renders them.
func explanation(hasProfile bool, mandatoryTotal, mandatoryUnmet int, gaps []string, unknownCount int) string {
	var lines []string

	switch {
	case !hasProfile:
		lines = append(lines, "No company profile found — complete your organisation profile to enable matching.")
	case mandatoryUnmet > 0:
		lines = append(lines, fmt.Sprintf("⚠ %d mandatory eligibility criteria are not met.", mandatoryUnmet))
	case mandatoryTotal > 0:
		lines = append(lines, fmt.Sprintf("✓ All %d mandatory criteria are satisfied.", mandatoryTotal))
	default:
		lines = append(lines, "No mandatory criteria defined — match is based on scoring criteria only.")
	}

	if len(gaps) > 0 {
		lines = append(lines, fmt.Sprintf("Missing documents: %s.", strings.Join(gaps, ", ")))
	}

	if unknownCount > 0 {
		lines = append(lines, fmt.Sprintf("%d criteria could not be evaluated — profile data missing.", unknownCount))
	}

	return strings.Join(lines, " ")
}
