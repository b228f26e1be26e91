package match

import (
	"testing"
	"time"

	"github.com/rowanhq/grantmatch/internal/models"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func rule(field, operator, value string) models.EligibilityRule {
	return models.EligibilityRule{Field: field, Operator: operator, Value: value}
}

func TestEvaluate_GteRevenue(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("annualRevenue", "gte", "500000")

	if got := Evaluate(vocab, r, &models.CompanyProfile{AnnualRevenue: floatPtr(600000)}, testNow); got != OutcomeMatched {
		t.Fatalf("revenue 600000 vs gte 500000: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{AnnualRevenue: floatPtr(400000)}, testNow); got != OutcomeUnmatched {
		t.Fatalf("revenue 400000 vs gte 500000: expected unmatched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{}, testNow); got != OutcomeUnknown {
		t.Fatalf("missing revenue: expected unknown, got %s", got)
	}
}

func TestEvaluate_InMissionAreas(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("missionArea", "in", "Health,Education")

	if got := Evaluate(vocab, r, &models.CompanyProfile{MissionAreas: []string{"Education", "Arts"}}, testNow); got != OutcomeMatched {
		t.Fatalf("overlap on Education: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{MissionAreas: []string{"Arts"}}, testNow); got != OutcomeUnmatched {
		t.Fatalf("no overlap: expected unmatched, got %s", got)
	}
}

func TestEvaluate_InCaseInsensitive(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("jurisdiction", "in", "UK, Ireland")

	if got := Evaluate(vocab, r, &models.CompanyProfile{Jurisdiction: strPtr("uk")}, testNow); got != OutcomeMatched {
		t.Fatalf("expected case-insensitive match, got %s", got)
	}
}

func TestEvaluate_NotIn(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("projectGeo", "not_in", "Syria,North Korea")

	if got := Evaluate(vocab, r, &models.CompanyProfile{GeographiesServed: []string{"Kenya"}}, testNow); got != OutcomeMatched {
		t.Fatalf("no blocked geography: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{GeographiesServed: []string{"Kenya", "Syria"}}, testNow); got != OutcomeUnmatched {
		t.Fatalf("blocked geography present: expected unmatched, got %s", got)
	}
}

func TestEvaluate_YearsOperatingAgeTransform(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("yearsOperating", "gte", "5")

	// founded 2015, evaluated in 2024: 9 years operating
	if got := Evaluate(vocab, r, &models.CompanyProfile{YearsFounded: intPtr(2015)}, testNow); got != OutcomeMatched {
		t.Fatalf("founded 2015 at 2024: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{YearsFounded: intPtr(2021)}, testNow); got != OutcomeUnmatched {
		t.Fatalf("founded 2021 at 2024: expected unmatched, got %s", got)
	}
}

func TestEvaluate_ExistsOnBool(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("hasInsurance", "exists", "")

	if got := Evaluate(vocab, r, &models.CompanyProfile{HasInsurance: boolPtr(false)}, testNow); got != OutcomeUnmatched {
		t.Fatalf("insurance=false: expected unmatched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{HasInsurance: boolPtr(true)}, testNow); got != OutcomeMatched {
		t.Fatalf("insurance=true: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{}, testNow); got != OutcomeUnknown {
		t.Fatalf("insurance unset: expected unknown, got %s", got)
	}
}

func TestEvaluate_ExistsOnEmptySlice(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("missionArea", "exists", "")

	// a provided-but-empty list still counts as present
	if got := Evaluate(vocab, r, &models.CompanyProfile{MissionAreas: []string{}}, testNow); got != OutcomeMatched {
		t.Fatalf("empty mission areas: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{}, testNow); got != OutcomeUnknown {
		t.Fatalf("nil mission areas: expected unknown, got %s", got)
	}
}

func TestEvaluate_EqBool(t *testing.T) {
	vocab := DefaultVocabulary()

	if got := Evaluate(vocab, rule("hasInsurance", "eq", "true"), &models.CompanyProfile{HasInsurance: boolPtr(true)}, testNow); got != OutcomeMatched {
		t.Fatalf("eq true vs true: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, rule("hasInsurance", "eq", "1"), &models.CompanyProfile{HasInsurance: boolPtr(true)}, testNow); got != OutcomeMatched {
		t.Fatalf("eq 1 vs true: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, rule("hasInsurance", "eq", "yes"), &models.CompanyProfile{HasInsurance: boolPtr(true)}, testNow); got != OutcomeUnmatched {
		t.Fatalf("eq yes vs true: expected unmatched, got %s", got)
	}
}

func TestEvaluate_EqStringCaseInsensitive(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("legalStructure", "eq", "Charity")

	if got := Evaluate(vocab, r, &models.CompanyProfile{LegalEntityType: strPtr("charity")}, testNow); got != OutcomeMatched {
		t.Fatalf("expected case-insensitive eq match, got %s", got)
	}
}

func TestEvaluate_Contains(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("missionArea", "contains", "educ")

	if got := Evaluate(vocab, r, &models.CompanyProfile{MissionAreas: []string{"Higher Education"}}, testNow); got != OutcomeMatched {
		t.Fatalf("substring present: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{MissionAreas: []string{"Arts"}}, testNow); got != OutcomeUnmatched {
		t.Fatalf("substring absent: expected unmatched, got %s", got)
	}
}

func TestEvaluate_Lte(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("employeeCount", "lte", "50")

	if got := Evaluate(vocab, r, &models.CompanyProfile{EmployeeCount: intPtr(30)}, testNow); got != OutcomeMatched {
		t.Fatalf("30 vs lte 50: expected matched, got %s", got)
	}
	if got := Evaluate(vocab, r, &models.CompanyProfile{EmployeeCount: intPtr(80)}, testNow); got != OutcomeUnmatched {
		t.Fatalf("80 vs lte 50: expected unmatched, got %s", got)
	}
}

func TestEvaluate_UnknownField(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("bogusField", "eq", "x")

	if got := Evaluate(vocab, r, &models.CompanyProfile{LegalEntityType: strPtr("charity")}, testNow); got != OutcomeUnknown {
		t.Fatalf("unmapped field: expected unknown, got %s", got)
	}
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("jurisdiction", "between", "a,b")

	if got := Evaluate(vocab, r, &models.CompanyProfile{Jurisdiction: strPtr("UK")}, testNow); got != OutcomeUnknown {
		t.Fatalf("unrecognised operator: expected unknown, got %s", got)
	}
}

func TestEvaluate_NonNumericGteUnknown(t *testing.T) {
	vocab := DefaultVocabulary()
	r := rule("jurisdiction", "gte", "10")

	if got := Evaluate(vocab, r, &models.CompanyProfile{Jurisdiction: strPtr("UK")}, testNow); got != OutcomeUnknown {
		t.Fatalf("non-numeric profile value: expected unknown, got %s", got)
	}
}

func TestEvaluate_ConfidenceNeverChangesOutcome(t *testing.T) {
	vocab := DefaultVocabulary()
	profile := &models.CompanyProfile{AnnualRevenue: floatPtr(400000)}

	for _, confidence := range []string{"certain", "likely", "uncertain", ""} {
		r := rule("annualRevenue", "gte", "500000")
		r.ConfidenceLevel = confidence
		if got := Evaluate(vocab, r, profile, testNow); got != OutcomeUnmatched {
			t.Fatalf("confidence %q: expected unmatched, got %s", confidence, got)
		}
	}
}
