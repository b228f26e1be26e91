package match

import "github.com/rowanhq/grantmatch/internal/models"

type completenessCheck struct {
	present bool
	points  int
}

// ProfileCompleteness derives the profile-level readiness score (0-100) from
// how much of the profile is filled in. Recomputed on every profile save;
// the match engine only consumes it as a fallback.
func ProfileCompleteness(p *models.CompanyProfile) int {
	if p == nil {
		return 0
	}

	checks := []completenessCheck{
		{p.LegalEntityType != nil && *p.LegalEntityType != "", 8},
		{p.Jurisdiction != nil && *p.Jurisdiction != "", 5},
		{p.TaxStatus != nil && *p.TaxStatus != "", 5},
		{p.YearsFounded != nil && *p.YearsFounded != 0, 4},
		{p.EmployeeCount != nil && *p.EmployeeCount != 0, 4},
		{p.AnnualRevenue != nil && *p.AnnualRevenue != 0, 5},
		{p.HasAuditedAccounts != nil && *p.HasAuditedAccounts, 8},
		{p.HasFinancialStatements != nil && *p.HasFinancialStatements, 8},
		{p.HasInsurance != nil && *p.HasInsurance, 5},
		{p.MissionStatement != nil && *p.MissionStatement != "", 8},
		{len(p.MissionAreas) > 0, 6},
		{len(p.GeographiesServed) > 0, 5},
		{p.ProposalWriterAvailable != nil && *p.ProposalWriterAvailable, 6},
		{p.HasSafeguardingPolicy != nil && *p.HasSafeguardingPolicy, 5},
		{p.HasLogicModel != nil && *p.HasLogicModel, 5},
		{p.PriorGrantWins != nil && *p.PriorGrantWins > 0, 7},
		{len(p.BeneficiaryPopulation) > 0, 5},
	}

	score := 0
	for _, c := range checks {
		if c.present {
			score += c.points
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}
