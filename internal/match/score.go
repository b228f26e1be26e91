package match

import (
	"math"
	"time"

	"github.com/rowanhq/grantmatch/internal/models"
)

// Result is the outcome of matching one company against one grant's rules.
type Result struct {
	EligibilityScore int
	ReadinessScore   int
	FitScore         int
	OverallScore     int

	Matched   []models.RuleSummary
	Unmatched []models.RuleSummary
	Unknown   []models.RuleSummary

	RiskFlags    []string
	DocumentGaps []string
	Explanation  string
}

// Compute runs the full engine: evaluates every rule, cross-references the
// document inventory, aggregates the four scores and narrates the result.
// profile is nil when the company has no profile yet; every rule is then
// routed to unknown (not unmatched), so a missing profile alone never
// triggers the mandatory veto.
func Compute(vocab Vocabulary, profile *models.CompanyProfile, docs []models.DocumentInventory, rules []models.EligibilityRule, now time.Time) Result {
	docAvailable := make(map[string]bool, len(docs))
	for _, d := range docs {
		docAvailable[d.DocType] = d.Available
	}

	matched := []models.RuleSummary{}
	unmatched := []models.RuleSummary{}
	unknown := []models.RuleSummary{}
	riskFlags := []string{}
	documentGaps := []string{}
	gapSeen := make(map[string]bool)

	hasProfile := profile != nil
	mandatoryTotal := 0
	optionalTotal := 0
	mandatoryUnmet := 0
	optionalMatched := 0

	for _, rule := range rules {
		if rule.IsMandatory {
			mandatoryTotal++
		} else {
			optionalTotal++
		}

		summary := models.RuleSummary{
			ID:          rule.ID,
			Field:       rule.Field,
			Operator:    rule.Operator,
			Value:       rule.Value,
			IsMandatory: rule.IsMandatory,
			Confidence:  rule.ConfidenceLevel,
			Evidence:    rule.EvidenceText,
		}

		if !hasProfile {
			unknown = append(unknown, summary)
			continue
		}

		switch Evaluate(vocab, rule, profile, now) {
		case OutcomeMatched:
			matched = append(matched, summary)
			if !rule.IsMandatory {
				optionalMatched++
			}
		case OutcomeUnmatched:
			unmatched = append(unmatched, summary)
			if rule.IsMandatory {
				mandatoryUnmet++
				riskFlags = append(riskFlags, "Mandatory criterion not met: "+rule.Field)
			}
		default:
			unknown = append(unknown, summary)
		}

		// Document gaps are about evidence, not outcome: flagged whether or
		// not the rule itself matched.
		if required, ok := vocab.Docs[rule.Field]; ok && !docAvailable[required] {
			if !gapSeen[required] {
				gapSeen[required] = true
				documentGaps = append(documentGaps, required)
			}
		}
	}

	// Eligibility: mandatory rules dominate. No rules at all means the
	// eligibility is simply undetermined.
	eligibilityScore := 100
	if mandatoryTotal > 0 {
		eligibilityScore = pct(mandatoryTotal-mandatoryUnmet, mandatoryTotal)
	} else if len(rules) == 0 {
		eligibilityScore = 50
	}

	// Readiness: share of grant-relevant documents on hand. The document map
	// is fixed and non-empty, but fall back defensively if a vocabulary
	// override empties it.
	readinessScore := 50
	if len(vocab.Docs) > 0 {
		available := 0
		for _, d := range vocab.Docs {
			if docAvailable[d] {
				available++
			}
		}
		readinessScore = pct(available, len(vocab.Docs))
	} else if hasProfile {
		readinessScore = profile.ReadinessScore
	}

	// Fit: share of non-mandatory criteria satisfied.
	fitScore := 50
	if optionalTotal > 0 {
		fitScore = pct(optionalMatched, optionalTotal)
	}

	// A single unmet mandatory criterion zeroes the whole match.
	overallScore := 0
	if mandatoryUnmet == 0 {
		overallScore = int(math.Round(
			float64(eligibilityScore)*0.5 + float64(readinessScore)*0.3 + float64(fitScore)*0.2,
		))
	}

	return Result{
		EligibilityScore: eligibilityScore,
		ReadinessScore:   readinessScore,
		FitScore:         fitScore,
		OverallScore:     overallScore,
		Matched:          matched,
		Unmatched:        unmatched,
		Unknown:          unknown,
		RiskFlags:        riskFlags,
		DocumentGaps:     documentGaps,
		Explanation:      explanation(hasProfile, mandatoryTotal, mandatoryUnmet, documentGaps, len(unknown)),
	}
}

func pct(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
