package match

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rowanhq/grantmatch/internal/models"
)

// Attribute names a CompanyProfile field the evaluator can read.
type Attribute string

const (
	AttrLegalEntityType         Attribute = "legal_entity_type"
	AttrJurisdiction            Attribute = "jurisdiction"
	AttrTaxStatus               Attribute = "tax_status"
	AttrRegistrationStatus      Attribute = "registration_status"
	AttrYearsFounded            Attribute = "years_founded"
	AttrEmployeeCount           Attribute = "employee_count"
	AttrAnnualRevenue           Attribute = "annual_revenue"
	AttrAnnualBudget            Attribute = "annual_budget"
	AttrPriorGrantWins          Attribute = "prior_grant_wins"
	AttrHasAuditedAccounts      Attribute = "has_audited_accounts"
	AttrHasInsurance            Attribute = "has_insurance"
	AttrHasSafeguardingPolicy   Attribute = "has_safeguarding_policy"
	AttrProposalWriterAvailable Attribute = "proposal_writer_available"
	AttrMissionAreas            Attribute = "mission_areas"
	AttrBeneficiaryPopulation   Attribute = "beneficiary_population"
	AttrGeographiesServed       Attribute = "geographies_served"
	AttrGeographiesRegistered   Attribute = "geographies_registered"
)

// fieldYearsOperating gets a founding-year-to-age transform on gte (see evaluator.go).
const fieldYearsOperating = "yearsOperating"

// Vocabulary is the controlled vocabulary rule authors write against.
// Fields translates a rule's field name into the profile attribute holding
// the comparable value; several field names intentionally alias to the same
// attribute. Docs maps the subset of fields that imply a supporting document
// onto the required document type.
type Vocabulary struct {
	Fields map[string]Attribute `yaml:"fields"`
	Docs   map[string]string    `yaml:"documents"`
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Fields: map[string]Attribute{
			"legalStructure":     AttrLegalEntityType,
			"legalEntityType":    AttrLegalEntityType,
			"jurisdiction":       AttrJurisdiction,
			"annualRevenue":      AttrAnnualRevenue,
			"annualBudget":       AttrAnnualBudget,
			"employeeCount":      AttrEmployeeCount,
			"taxStatus":          AttrTaxStatus,
			fieldYearsOperating:  AttrYearsFounded,
			"projectGeo":         AttrGeographiesServed,
			"applicantGeo":       AttrGeographiesRegistered,
			"beneficiaryType":    AttrBeneficiaryPopulation,
			// TODO: confirm coFundingAvailable should not map to a dedicated
			// co-funding attribute instead of the audited-accounts flag.
			"coFundingAvailable":      AttrHasAuditedAccounts,
			"hasAuditedAccounts":      AttrHasAuditedAccounts,
			"hasInsurance":            AttrHasInsurance,
			"hasSafeguardingPolicy":   AttrHasSafeguardingPolicy,
			"industry":                AttrMissionAreas,
			"missionArea":             AttrMissionAreas,
			"registrationStatus":      AttrRegistrationStatus,
			"proposalWriterAvailable": AttrProposalWriterAvailable,
			"priorGrantExperience":    AttrPriorGrantWins,
		},
		Docs: map[string]string{
			"hasAuditedAccounts":     "audit",
			"hasFinancialStatements": "financial_statements",
			"hasInsurance":           "insurance",
			"hasSafeguardingPolicy":  "safeguarding_policy",
			"hasLogicModel":          "logic_model",
		},
	}
}

// LoadVocabulary reads a vocabulary override from a YAML file. Environment
// variables inside the file (e.g. ${X}) are expanded before parsing.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, err
	}

	expanded := os.ExpandEnv(string(data))

	var vocab Vocabulary
	if err := yaml.Unmarshal([]byte(expanded), &vocab); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary %s: %w", path, err)
	}

	if len(vocab.Fields) == 0 {
		return Vocabulary{}, fmt.Errorf("vocabulary %s defines no fields", path)
	}

	return vocab, nil
}

// profileValue reads the attribute's current value from the profile. The
// second return is false when the company has not provided the value.
func profileValue(p *models.CompanyProfile, attr Attribute) (any, bool) {
	if p == nil {
		return nil, false
	}

	switch attr {
	case AttrLegalEntityType:
		return strVal(p.LegalEntityType)
	case AttrJurisdiction:
		return strVal(p.Jurisdiction)
	case AttrTaxStatus:
		return strVal(p.TaxStatus)
	case AttrRegistrationStatus:
		return strVal(p.RegistrationStatus)
	case AttrYearsFounded:
		return intVal(p.YearsFounded)
	case AttrEmployeeCount:
		return intVal(p.EmployeeCount)
	case AttrAnnualRevenue:
		return floatVal(p.AnnualRevenue)
	case AttrAnnualBudget:
		return floatVal(p.AnnualBudget)
	case AttrPriorGrantWins:
		return intVal(p.PriorGrantWins)
	case AttrHasAuditedAccounts:
		return boolVal(p.HasAuditedAccounts)
	case AttrHasInsurance:
		return boolVal(p.HasInsurance)
	case AttrHasSafeguardingPolicy:
		return boolVal(p.HasSafeguardingPolicy)
	case AttrProposalWriterAvailable:
		return boolVal(p.ProposalWriterAvailable)
	case AttrMissionAreas:
		return sliceVal(p.MissionAreas)
	case AttrBeneficiaryPopulation:
		return sliceVal(p.BeneficiaryPopulation)
	case AttrGeographiesServed:
		return sliceVal(p.GeographiesServed)
	case AttrGeographiesRegistered:
		return sliceVal(p.GeographiesRegistered)
	}

	return nil, false
}

func strVal(v *string) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func intVal(v *int) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func floatVal(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func boolVal(v *bool) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func sliceVal(v []string) (any, bool) {
	if v == nil {
		return nil, false
	}
	return v, true
}
