package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanhq/grantmatch/internal/match"
	"github.com/rowanhq/grantmatch/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// profileCols is the column list shared by profile reads.
const profileCols = `id, company_id, legal_entity_type, jurisdiction, tax_status, registration_status,
	mission_statement, years_founded, employee_count, annual_revenue, annual_budget, prior_grant_wins,
	has_audited_accounts, has_financial_statements, has_insurance, has_safeguarding_policy,
	has_logic_model, proposal_writer_available, mission_areas, beneficiary_population,
	geographies_served, geographies_registered, readiness_score, updated_at`

// GetCompanyProfile returns (nil, nil) when the company has no profile yet;
// that is a legitimate steady state, not an error.
func (s *Store) GetCompanyProfile(ctx context.Context, companyID uuid.UUID) (*models.CompanyProfile, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM company_profiles WHERE company_id = $1
	`, profileCols), companyID)

	var p models.CompanyProfile
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.LegalEntityType, &p.Jurisdiction, &p.TaxStatus, &p.RegistrationStatus,
		&p.MissionStatement, &p.YearsFounded, &p.EmployeeCount, &p.AnnualRevenue, &p.AnnualBudget, &p.PriorGrantWins,
		&p.HasAuditedAccounts, &p.HasFinancialStatements, &p.HasInsurance, &p.HasSafeguardingPolicy,
		&p.HasLogicModel, &p.ProposalWriterAvailable, &p.MissionAreas, &p.BeneficiaryPopulation,
		&p.GeographiesServed, &p.GeographiesRegistered, &p.ReadinessScore, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile query failed: %w", err)
	}

	return &p, nil
}

func (s *Store) UpsertCompanyProfile(ctx context.Context, p *models.CompanyProfile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO company_profiles (
			company_id, legal_entity_type, jurisdiction, tax_status, registration_status,
			mission_statement, years_founded, employee_count, annual_revenue, annual_budget,
			prior_grant_wins, has_audited_accounts, has_financial_statements, has_insurance,
			has_safeguarding_policy, has_logic_model, proposal_writer_available,
			mission_areas, beneficiary_population, geographies_served, geographies_registered,
			readiness_score, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			legal_entity_type = EXCLUDED.legal_entity_type,
			jurisdiction = EXCLUDED.jurisdiction,
			tax_status = EXCLUDED.tax_status,
			registration_status = EXCLUDED.registration_status,
			mission_statement = EXCLUDED.mission_statement,
			years_founded = EXCLUDED.years_founded,
			employee_count = EXCLUDED.employee_count,
			annual_revenue = EXCLUDED.annual_revenue,
			annual_budget = EXCLUDED.annual_budget,
			prior_grant_wins = EXCLUDED.prior_grant_wins,
			has_audited_accounts = EXCLUDED.has_audited_accounts,
			has_financial_statements = EXCLUDED.has_financial_statements,
			has_insurance = EXCLUDED.has_insurance,
			has_safeguarding_policy = EXCLUDED.has_safeguarding_policy,
			has_logic_model = EXCLUDED.has_logic_model,
			proposal_writer_available = EXCLUDED.proposal_writer_available,
			mission_areas = EXCLUDED.mission_areas,
			beneficiary_population = EXCLUDED.beneficiary_population,
			geographies_served = EXCLUDED.geographies_served,
			geographies_registered = EXCLUDED.geographies_registered,
			readiness_score = EXCLUDED.readiness_score,
			updated_at = NOW()
	`,
		p.CompanyID, p.LegalEntityType, p.Jurisdiction, p.TaxStatus, p.RegistrationStatus,
		p.MissionStatement, p.YearsFounded, p.EmployeeCount, p.AnnualRevenue, p.AnnualBudget,
		p.PriorGrantWins, p.HasAuditedAccounts, p.HasFinancialStatements, p.HasInsurance,
		p.HasSafeguardingPolicy, p.HasLogicModel, p.ProposalWriterAvailable,
		p.MissionAreas, p.BeneficiaryPopulation, p.GeographiesServed, p.GeographiesRegistered,
		p.ReadinessScore,
	)
	if err != nil {
		return fmt.Errorf("profile upsert failed: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, companyID uuid.UUID) ([]models.DocumentInventory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, doc_type, available, notes, expires_at, updated_at
		FROM document_inventory
		WHERE company_id = $1
		ORDER BY doc_type
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("documents query failed: %w", err)
	}
	defer rows.Close()

	var docs []models.DocumentInventory
	for rows.Next() {
		var d models.DocumentInventory
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.DocType, &d.Available, &d.Notes, &d.ExpiresAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("document scan failed: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) UpsertDocument(ctx context.Context, d *models.DocumentInventory) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_inventory (company_id, doc_type, available, notes, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (company_id, doc_type) DO UPDATE SET
			available = EXCLUDED.available,
			notes = EXCLUDED.notes,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, d.CompanyID, d.DocType, d.Available, d.Notes, d.ExpiresAt)
	if err != nil {
		return fmt.Errorf("document upsert failed: %w", err)
	}
	return nil
}

const ruleCols = `id, public_grant_id, field, operator, value, value_type,
	is_mandatory, confidence_level, evidence_text, notes, created_at, updated_at`

func scanRule(scan func(dest ...any) error) (models.EligibilityRule, error) {
	var r models.EligibilityRule
	err := scan(
		&r.ID, &r.PublicGrantID, &r.Field, &r.Operator, &r.Value, &r.ValueType,
		&r.IsMandatory, &r.ConfidenceLevel, &r.EvidenceText, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (s *Store) ListRules(ctx context.Context, grantID uuid.UUID) ([]models.EligibilityRule, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM eligibility_rules
		WHERE public_grant_id = $1
		ORDER BY is_mandatory DESC, created_at ASC
	`, ruleCols), grantID)
	if err != nil {
		return nil, fmt.Errorf("rules query failed: %w", err)
	}
	defer rows.Close()

	var rules []models.EligibilityRule
	for rows.Next() {
		r, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("rule scan failed: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) GetRule(ctx context.Context, ruleID uuid.UUID) (*models.EligibilityRule, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM eligibility_rules WHERE id = $1
	`, ruleCols), ruleID)

	r, err := scanRule(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &r, nil
}

func (s *Store) CreateRule(ctx context.Context, r *models.EligibilityRule) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO eligibility_rules (
			public_grant_id, field, operator, value, value_type,
			is_mandatory, confidence_level, evidence_text, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		r.PublicGrantID, r.Field, r.Operator, r.Value, r.ValueType,
		r.IsMandatory, r.ConfidenceLevel, r.EvidenceText, r.Notes,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("rule insert failed: %w", err)
	}
	return nil
}

func (s *Store) UpdateRule(ctx context.Context, r *models.EligibilityRule) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE eligibility_rules SET
			field = $2, operator = $3, value = $4, value_type = $5,
			is_mandatory = $6, confidence_level = $7, evidence_text = $8, notes = $9,
			updated_at = NOW()
		WHERE id = $1
	`,
		r.ID, r.Field, r.Operator, r.Value, r.ValueType,
		r.IsMandatory, r.ConfidenceLevel, r.EvidenceText, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("rule update failed: %w", err)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM eligibility_rules WHERE id = $1", ruleID)
	if err != nil {
		return fmt.Errorf("rule delete failed: %w", err)
	}
	return nil
}

func (s *Store) ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM companies")
	if err != nil {
		return nil, fmt.Errorf("companies query failed: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListActiveGrantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM public_grants WHERE status = ANY($1)", match.ActiveGrantStatuses)
	if err != nil {
		return nil, fmt.Errorf("active grants query failed: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreateGrant(ctx context.Context, g *models.PublicGrant) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO public_grants (title, funder_name, status, amount_min, amount_max, currency, deadline_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, g.Title, g.FunderName, g.Status, g.AmountMin, g.AmountMax, g.Currency, g.DeadlineAt).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("grant insert failed: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID uuid.UUID) (*models.PublicGrant, error) {
	var g models.PublicGrant
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, funder_name, status, amount_min, amount_max, currency, deadline_at, created_at
		FROM public_grants WHERE id = $1
	`, grantID).Scan(&g.ID, &g.Title, &g.FunderName, &g.Status, &g.AmountMin, &g.AmountMax, &g.Currency, &g.DeadlineAt, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &g, nil
}

func (s *Store) ListGrants(ctx context.Context, status string) ([]models.PublicGrant, error) {
	where := "WHERE 1=1"
	var args []any
	if status == "" || status == "active" {
		where += " AND status = ANY($1)"
		args = append(args, match.ActiveGrantStatuses)
	} else if status != "all" {
		where += " AND status = $1"
		args = append(args, status)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, title, funder_name, status, amount_min, amount_max, currency, deadline_at, created_at
		FROM public_grants %s
		ORDER BY created_at DESC
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("grants query failed: %w", err)
	}
	defer rows.Close()

	var grants []models.PublicGrant
	for rows.Next() {
		var g models.PublicGrant
		if err := rows.Scan(&g.ID, &g.Title, &g.FunderName, &g.Status, &g.AmountMin, &g.AmountMax, &g.Currency, &g.DeadlineAt, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("grant scan failed: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// upsertMatchSQL replaces the whole row on conflict: every recomputation is
// independently derived from current source data, so last write wins.
const upsertMatchSQL = `
	INSERT INTO grant_matches (
		company_id, public_grant_id, overall_score, eligibility_score, readiness_score, fit_score,
		matched_criteria, unmatched_criteria, unknown_criteria, risk_flags, document_gaps,
		explanation, computed_at, stale
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (company_id, public_grant_id) DO UPDATE SET
		overall_score = EXCLUDED.overall_score,
		eligibility_score = EXCLUDED.eligibility_score,
		readiness_score = EXCLUDED.readiness_score,
		fit_score = EXCLUDED.fit_score,
		matched_criteria = EXCLUDED.matched_criteria,
		unmatched_criteria = EXCLUDED.unmatched_criteria,
		unknown_criteria = EXCLUDED.unknown_criteria,
		risk_flags = EXCLUDED.risk_flags,
		document_gaps = EXCLUDED.document_gaps,
		explanation = EXCLUDED.explanation,
		computed_at = EXCLUDED.computed_at,
		stale = EXCLUDED.stale
`

func (s *Store) UpsertMatch(ctx context.Context, m *models.GrantMatch) error {
	matchedJSON, err := json.Marshal(m.MatchedCriteria)
	if err != nil {
		return fmt.Errorf("encode matched criteria: %w", err)
	}
	unmatchedJSON, err := json.Marshal(m.UnmatchedCriteria)
	if err != nil {
		return fmt.Errorf("encode unmatched criteria: %w", err)
	}
	unknownJSON, err := json.Marshal(m.UnknownCriteria)
	if err != nil {
		return fmt.Errorf("encode unknown criteria: %w", err)
	}
	riskJSON, err := json.Marshal(m.RiskFlags)
	if err != nil {
		return fmt.Errorf("encode risk flags: %w", err)
	}
	gapsJSON, err := json.Marshal(m.DocumentGaps)
	if err != nil {
		return fmt.Errorf("encode document gaps: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertMatchSQL,
		m.CompanyID, m.PublicGrantID, m.OverallScore, m.EligibilityScore, m.ReadinessScore, m.FitScore,
		matchedJSON, unmatchedJSON, unknownJSON, riskJSON, gapsJSON,
		m.Explanation, m.ComputedAt, m.Stale,
	)
	if err != nil {
		return fmt.Errorf("match upsert failed: %w", err)
	}
	return nil
}

// MarkMatchesStale flags every match row for the grant without touching
// scores; cleared only by a subsequent successful recomputation.
func (s *Store) MarkMatchesStale(ctx context.Context, grantID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, "UPDATE grant_matches SET stale = TRUE WHERE public_grant_id = $1", grantID)
	if err != nil {
		return fmt.Errorf("stale update failed: %w", err)
	}
	return nil
}

func (s *Store) ListMatchesForCompany(ctx context.Context, companyID uuid.UUID) ([]models.GrantMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, public_grant_id, overall_score, eligibility_score, readiness_score, fit_score,
		       matched_criteria, unmatched_criteria, unknown_criteria, risk_flags, document_gaps,
		       explanation, computed_at, stale
		FROM grant_matches
		WHERE company_id = $1
		ORDER BY overall_score DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("matches query failed: %w", err)
	}
	defer rows.Close()

	var matches []models.GrantMatch
	for rows.Next() {
		var m models.GrantMatch
		var matchedRaw, unmatchedRaw, unknownRaw, riskRaw, gapsRaw []byte
		err := rows.Scan(
			&m.ID, &m.CompanyID, &m.PublicGrantID, &m.OverallScore, &m.EligibilityScore, &m.ReadinessScore, &m.FitScore,
			&matchedRaw, &unmatchedRaw, &unknownRaw, &riskRaw, &gapsRaw,
			&m.Explanation, &m.ComputedAt, &m.Stale,
		)
		if err != nil {
			return nil, fmt.Errorf("match scan failed: %w", err)
		}

		if err := json.Unmarshal(matchedRaw, &m.MatchedCriteria); err != nil {
			return nil, fmt.Errorf("decode matched criteria: %w", err)
		}
		if err := json.Unmarshal(unmatchedRaw, &m.UnmatchedCriteria); err != nil {
			return nil, fmt.Errorf("decode unmatched criteria: %w", err)
		}
		if err := json.Unmarshal(unknownRaw, &m.UnknownCriteria); err != nil {
			return nil, fmt.Errorf("decode unknown criteria: %w", err)
		}
		if err := json.Unmarshal(riskRaw, &m.RiskFlags); err != nil {
			return nil, fmt.Errorf("decode risk flags: %w", err)
		}
		if err := json.Unmarshal(gapsRaw, &m.DocumentGaps); err != nil {
			return nil, fmt.Errorf("decode document gaps: %w", err)
		}

		matches = append(matches, m)
	}

	if matches == nil {
		matches = []models.GrantMatch{}
	}
	return matches, rows.Err()
}
