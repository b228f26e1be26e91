package match

import (
	"testing"

	"github.com/rowanhq/grantmatch/internal/models"
)

func TestProfileCompleteness_NilProfile(t *testing.T) {
	if got := ProfileCompleteness(nil); got != 0 {
		t.Fatalf("expected 0 for nil profile, got %d", got)
	}
}

func TestProfileCompleteness_EmptyProfile(t *testing.T) {
	if got := ProfileCompleteness(&models.CompanyProfile{}); got != 0 {
		t.Fatalf("expected 0 for empty profile, got %d", got)
	}
}

func TestProfileCompleteness_PartialProfile(t *testing.T) {
	p := &models.CompanyProfile{
		LegalEntityType:  strPtr("charity"),  // 8
		Jurisdiction:     strPtr("UK"),       // 5
		MissionStatement: strPtr("We help."), // 8
		MissionAreas:     []string{"Health"}, // 6
	}
	if got := ProfileCompleteness(p); got != 27 {
		t.Fatalf("expected 27, got %d", got)
	}
}

func TestProfileCompleteness_FalseFlagsScoreNothing(t *testing.T) {
	p := &models.CompanyProfile{
		HasAuditedAccounts: boolPtr(false),
		HasInsurance:       boolPtr(false),
	}
	if got := ProfileCompleteness(p); got != 0 {
		t.Fatalf("expected 0 for false capability flags, got %d", got)
	}
}

func TestProfileCompleteness_FullProfile(t *testing.T) {
	p := &models.CompanyProfile{
		LegalEntityType:         strPtr("charity"),
		Jurisdiction:            strPtr("UK"),
		TaxStatus:               strPtr("exempt"),
		YearsFounded:            intPtr(2010),
		EmployeeCount:           intPtr(12),
		AnnualRevenue:           floatPtr(250000),
		HasAuditedAccounts:      boolPtr(true),
		HasFinancialStatements:  boolPtr(true),
		HasInsurance:            boolPtr(true),
		MissionStatement:        strPtr("We help."),
		MissionAreas:            []string{"Health"},
		GeographiesServed:       []string{"UK"},
		ProposalWriterAvailable: boolPtr(true),
		HasSafeguardingPolicy:   boolPtr(true),
		HasLogicModel:           boolPtr(true),
		PriorGrantWins:          intPtr(2),
		BeneficiaryPopulation:   []string{"youth"},
	}
	if got := ProfileCompleteness(p); got != 99 {
		t.Fatalf("expected 99, got %d", got)
	}
}
