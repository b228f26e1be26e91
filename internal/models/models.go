package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the organisation applying for grants. Each company is owned by
// one user account and has at most one profile.
type Company struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CompanyProfile holds the structured facts eligibility rules are evaluated
// against. Scalar attributes are pointers: nil means the company has not
// filled the field in, which is distinct from a zero value.
type CompanyProfile struct {
	ID                      uuid.UUID `json:"id"`
	CompanyID               uuid.UUID `json:"company_id"`
	LegalEntityType         *string   `json:"legal_entity_type"`
	Jurisdiction            *string   `json:"jurisdiction"`
	TaxStatus               *string   `json:"tax_status"`
	RegistrationStatus      *string   `json:"registration_status"`
	MissionStatement        *string   `json:"mission_statement"`
	YearsFounded            *int      `json:"years_founded"`
	EmployeeCount           *int      `json:"employee_count"`
	AnnualRevenue           *float64  `json:"annual_revenue"`
	AnnualBudget            *float64  `json:"annual_budget"`
	PriorGrantWins          *int      `json:"prior_grant_wins"`
	HasAuditedAccounts      *bool     `json:"has_audited_accounts"`
	HasFinancialStatements  *bool     `json:"has_financial_statements"`
	HasInsurance            *bool     `json:"has_insurance"`
	HasSafeguardingPolicy   *bool     `json:"has_safeguarding_policy"`
	HasLogicModel           *bool     `json:"has_logic_model"`
	ProposalWriterAvailable *bool     `json:"proposal_writer_available"`
	MissionAreas            []string  `json:"mission_areas"`
	BeneficiaryPopulation   []string  `json:"beneficiary_population"`
	GeographiesServed       []string  `json:"geographies_served"`
	GeographiesRegistered   []string  `json:"geographies_registered"`
	// ReadinessScore is derived from profile completeness on every save.
	ReadinessScore int       `json:"readiness_score"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DocumentInventory is one row per (company, document type): whether the
// company has that supporting document on hand.
type DocumentInventory struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"company_id"`
	DocType   string     `json:"doc_type"`
	Available bool       `json:"available"`
	Notes     *string    `json:"notes"`
	ExpiresAt *time.Time `json:"expires_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PublicGrant is an entry in the shared grant catalog. Only grants in an
// active status participate in company-wide rematching.
type PublicGrant struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	FunderName string     `json:"funder_name"`
	Status     string     `json:"status"` // open, enriched, closing_soon, recurring, closed, draft
	AmountMin  float64    `json:"amount_min"`
	AmountMax  float64    `json:"amount_max"`
	Currency   string     `json:"currency"`
	DeadlineAt *time.Time `json:"deadline_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// EligibilityRule is an admin-authored predicate a grant requires (mandatory)
// or scores (non-mandatory) for applicants. Read-only to the matching engine.
type EligibilityRule struct {
	ID              uuid.UUID `json:"id"`
	PublicGrantID   uuid.UUID `json:"public_grant_id"`
	Field           string    `json:"field"`
	Operator        string    `json:"operator"` // eq, in, not_in, gte, lte, contains, exists
	Value           string    `json:"value"`
	ValueType       string    `json:"value_type"`
	IsMandatory     bool      `json:"is_mandatory"`
	ConfidenceLevel string    `json:"confidence_level"`
	EvidenceText    string    `json:"evidence_text"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RuleSummary is the per-criterion record embedded in a GrantMatch's
// matched/unmatched/unknown lists.
type RuleSummary struct {
	ID          uuid.UUID `json:"id"`
	Field       string    `json:"field"`
	Operator    string    `json:"operator"`
	Value       string    `json:"value"`
	IsMandatory bool      `json:"is_mandatory"`
	Confidence  string    `json:"confidence"`
	Evidence    string    `json:"evidence"`
}

// GrantMatch is the engine's output: one row per (company, grant) pair,
// replaced in full on every recomputation. Stale=true means the scores
// reflect out-of-date inputs and a recomputation is pending (or failed).
type GrantMatch struct {
	ID                uuid.UUID     `json:"id"`
	CompanyID         uuid.UUID     `json:"company_id"`
	PublicGrantID     uuid.UUID     `json:"public_grant_id"`
	OverallScore      int           `json:"overall_score"`
	EligibilityScore  int           `json:"eligibility_score"`
	ReadinessScore    int           `json:"readiness_score"`
	FitScore          int           `json:"fit_score"`
	MatchedCriteria   []RuleSummary `json:"matched_criteria"`
	UnmatchedCriteria []RuleSummary `json:"unmatched_criteria"`
	UnknownCriteria   []RuleSummary `json:"unknown_criteria"`
	RiskFlags         []string      `json:"risk_flags"`
	DocumentGaps      []string      `json:"document_gaps"`
	Explanation       string        `json:"explanation"`
	ComputedAt        time.Time     `json:"computed_at"`
	Stale             bool          `json:"stale"`
}
