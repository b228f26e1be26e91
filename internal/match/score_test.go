package match

import (
	"strings"
	"testing"

	"github.com/rowanhq/grantmatch/internal/models"
)

func mandatory(field, operator, value string) models.EligibilityRule {
	r := rule(field, operator, value)
	r.IsMandatory = true
	return r
}

func TestCompute_MandatoryVetoZeroesOverall(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{
		AnnualRevenue: floatPtr(100000),
		MissionAreas:  []string{"Health"},
	}
	rules := []models.EligibilityRule{
		mandatory("annualRevenue", "gte", "500000"),
		rule("missionArea", "in", "Health"),
	}

	result := Compute(vocab, profile, nil, rules, testNow)

	if result.OverallScore != 0 {
		t.Fatalf("expected overall 0 with an unmet mandatory criterion, got %d", result.OverallScore)
	}
	if result.EligibilityScore != 0 {
		t.Fatalf("expected eligibility 0, got %d", result.EligibilityScore)
	}
	if result.FitScore != 100 {
		t.Fatalf("expected fit 100 (optional matched), got %d", result.FitScore)
	}
	if len(result.RiskFlags) != 1 || result.RiskFlags[0] != "Mandatory criterion not met: annualRevenue" {
		t.Fatalf("unexpected risk flags: %v", result.RiskFlags)
	}
	if !strings.Contains(result.Explanation, "⚠ 1 mandatory eligibility criteria are not met.") {
		t.Fatalf("explanation missing veto sentence: %s", result.Explanation)
	}
}

func TestCompute_AllMandatoryMet(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{
		AnnualRevenue: floatPtr(600000),
		Jurisdiction:  strPtr("UK"),
	}
	rules := []models.EligibilityRule{
		mandatory("annualRevenue", "gte", "500000"),
		mandatory("jurisdiction", "eq", "UK"),
	}

	result := Compute(vocab, profile, nil, rules, testNow)

	if result.EligibilityScore != 100 {
		t.Fatalf("expected eligibility 100, got %d", result.EligibilityScore)
	}
	if len(result.RiskFlags) != 0 {
		t.Fatalf("expected no risk flags, got %v", result.RiskFlags)
	}
	if !strings.Contains(result.Explanation, "✓ All 2 mandatory criteria are satisfied.") {
		t.Fatalf("explanation missing success sentence: %s", result.Explanation)
	}
	// readiness 0 (no documents), fit 50 (no optional rules): 0.5*100 + 0 + 10
	if result.OverallScore != 60 {
		t.Fatalf("expected overall 60, got %d", result.OverallScore)
	}
}

func TestCompute_NoProfileRoutesAllRulesUnknown(t *testing.T) {
	vocab := DefaultVocabulary()
	rules := []models.EligibilityRule{
		mandatory("annualRevenue", "gte", "500000"),
		rule("missionArea", "in", "Health"),
	}

	result := Compute(vocab, nil, nil, rules, testNow)

	if len(result.Unknown) != 2 {
		t.Fatalf("expected both rules unknown, got %d", len(result.Unknown))
	}
	if len(result.Unmatched) != 0 {
		t.Fatalf("missing profile must not produce unmatched rules, got %d", len(result.Unmatched))
	}
	// no mandatory rule is unmet, so the veto must not fire
	if result.EligibilityScore != 100 {
		t.Fatalf("expected eligibility 100 (no unmet mandatory), got %d", result.EligibilityScore)
	}
	if result.OverallScore == 0 && result.EligibilityScore != 0 {
		t.Fatal("veto fired without an unmet mandatory criterion")
	}
	if !strings.HasPrefix(result.Explanation, "No company profile found — complete your organisation profile to enable matching.") {
		t.Fatalf("unexpected explanation: %s", result.Explanation)
	}
	if !strings.Contains(result.Explanation, "2 criteria could not be evaluated — profile data missing.") {
		t.Fatalf("explanation missing unknown count: %s", result.Explanation)
	}
	// document cross-referencing is skipped without a profile
	if len(result.DocumentGaps) != 0 {
		t.Fatalf("expected no document gaps without a profile, got %v", result.DocumentGaps)
	}
}

func TestCompute_ZeroRulesEligibilityFifty(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{}

	result := Compute(vocab, profile, nil, nil, testNow)

	if result.EligibilityScore != 50 {
		t.Fatalf("expected eligibility 50 with no rules, got %d", result.EligibilityScore)
	}
	if result.FitScore != 50 {
		t.Fatalf("expected fit 50 with no optional rules, got %d", result.FitScore)
	}
	if !strings.Contains(result.Explanation, "No mandatory criteria defined — match is based on scoring criteria only.") {
		t.Fatalf("unexpected explanation: %s", result.Explanation)
	}
}

func TestCompute_ReadinessCountsAvailableDocuments(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{}
	docs := []models.DocumentInventory{
		{DocType: "audit", Available: true},
		{DocType: "insurance", Available: true},
		{DocType: "logic_model", Available: false},
	}

	result := Compute(vocab, profile, docs, nil, testNow)

	// 2 of 5 document types available
	if result.ReadinessScore != 40 {
		t.Fatalf("expected readiness 40, got %d", result.ReadinessScore)
	}
}

func TestCompute_ReadinessFallsBackToProfileScore(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Docs = map[string]string{}
	profile := &models.CompanyProfile{ReadinessScore: 73}

	result := Compute(vocab, profile, nil, nil, testNow)

	if result.ReadinessScore != 73 {
		t.Fatalf("expected readiness fallback 73, got %d", result.ReadinessScore)
	}
}

func TestCompute_DocumentGapsDeduplicatedAndOutcomeIndependent(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{
		HasInsurance:       boolPtr(true),
		HasAuditedAccounts: boolPtr(false),
	}
	rules := []models.EligibilityRule{
		rule("hasInsurance", "eq", "true"),
		rule("hasInsurance", "exists", ""),
		rule("hasAuditedAccounts", "eq", "true"),
	}

	result := Compute(vocab, profile, nil, rules, testNow)

	// the matched insurance rules still flag the missing insurance document,
	// and the duplicate field only produces one gap
	if len(result.DocumentGaps) != 2 {
		t.Fatalf("expected 2 gaps, got %v", result.DocumentGaps)
	}
	if result.DocumentGaps[0] != "insurance" || result.DocumentGaps[1] != "audit" {
		t.Fatalf("expected gaps in rule order [insurance audit], got %v", result.DocumentGaps)
	}
	if !strings.Contains(result.Explanation, "Missing documents: insurance, audit.") {
		t.Fatalf("explanation missing gaps sentence: %s", result.Explanation)
	}
}

func TestCompute_WeightedOverall(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{
		Jurisdiction: strPtr("UK"),
		MissionAreas: []string{"Health", "Arts"},
	}
	docs := []models.DocumentInventory{
		{DocType: "audit", Available: true},
		{DocType: "financial_statements", Available: true},
		{DocType: "insurance", Available: true},
		{DocType: "safeguarding_policy", Available: true},
		{DocType: "logic_model", Available: true},
	}
	rules := []models.EligibilityRule{
		mandatory("jurisdiction", "eq", "UK"),
		rule("missionArea", "in", "Health"),
		rule("missionArea", "in", "Education"),
	}

	result := Compute(vocab, profile, docs, rules, testNow)

	if result.EligibilityScore != 100 || result.ReadinessScore != 100 || result.FitScore != 50 {
		t.Fatalf("unexpected component scores: E=%d R=%d F=%d",
			result.EligibilityScore, result.ReadinessScore, result.FitScore)
	}
	// 0.5*100 + 0.3*100 + 0.2*50 = 90
	if result.OverallScore != 90 {
		t.Fatalf("expected overall 90, got %d", result.OverallScore)
	}
}

func TestCompute_EmptySlicesNotNil(t *testing.T) {
	result := Compute(DefaultVocabulary(), nil, nil, nil, testNow)

	if result.Matched == nil || result.Unmatched == nil || result.Unknown == nil ||
		result.RiskFlags == nil || result.DocumentGaps == nil {
		t.Fatal("result slices must be non-nil so they serialise as [] not null")
	}
}
