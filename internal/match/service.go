package match

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rowanhq/grantmatch/internal/models"
)

// ActiveGrantStatuses are the catalog statuses included in company-wide
// rematching.
var ActiveGrantStatuses = []string{"open", "enriched", "closing_soon", "recurring"}

// Store is the persistence surface the engine needs. GetCompanyProfile
// returns (nil, nil) when the company has no profile yet.
type Store interface {
	GetCompanyProfile(ctx context.Context, companyID uuid.UUID) (*models.CompanyProfile, error)
	ListDocuments(ctx context.Context, companyID uuid.UUID) ([]models.DocumentInventory, error)
	ListRules(ctx context.Context, grantID uuid.UUID) ([]models.EligibilityRule, error)
	ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
	ListActiveGrantIDs(ctx context.Context) ([]uuid.UUID, error)
	UpsertMatch(ctx context.Context, m *models.GrantMatch) error
	MarkMatchesStale(ctx context.Context, grantID uuid.UUID) error
}

// Service computes and persists grant matches.
type Service struct {
	store Store
	vocab Vocabulary
	now   func() time.Time
}

func NewService(store Store, vocab Vocabulary) *Service {
	return &Service{
		store: store,
		vocab: vocab,
		now:   time.Now,
	}
}

// ComputeMatchForGrant recomputes the match for one (company, grant) pair
// from current source data and upserts the single row keyed by that pair.
// The row always comes out with stale=false.
func (s *Service) ComputeMatchForGrant(ctx context.Context, companyID, grantID uuid.UUID) error {
	profile, err := s.store.GetCompanyProfile(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	docs, err := s.store.ListDocuments(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	rules, err := s.store.ListRules(ctx, grantID)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	now := s.now().UTC()
	result := Compute(s.vocab, profile, docs, rules, now)

	return s.store.UpsertMatch(ctx, &models.GrantMatch{
		CompanyID:         companyID,
		PublicGrantID:     grantID,
		OverallScore:      result.OverallScore,
		EligibilityScore:  result.EligibilityScore,
		ReadinessScore:    result.ReadinessScore,
		FitScore:          result.FitScore,
		MatchedCriteria:   result.Matched,
		UnmatchedCriteria: result.Unmatched,
		UnknownCriteria:   result.Unknown,
		RiskFlags:         result.RiskFlags,
		DocumentGaps:      result.DocumentGaps,
		Explanation:       result.Explanation,
		ComputedAt:        now,
		Stale:             false,
	})
}

// ComputeMatchesForAllCompanies recomputes one grant's match for every
// company, concurrently. Per-company failures are logged and swallowed: a
// failed pair keeps its previous (possibly stale) row, the rest still update.
func (s *Service) ComputeMatchesForAllCompanies(ctx context.Context, grantID uuid.UUID) error {
	companyIDs, err := s.store.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	var wg sync.WaitGroup
	for _, companyID := range companyIDs {
		wg.Add(1)
		go func(companyID uuid.UUID) {
			defer wg.Done()
			if err := s.ComputeMatchForGrant(ctx, companyID, grantID); err != nil {
				log.Printf("match: recompute company=%s grant=%s failed: %v", companyID, grantID, err)
			}
		}(companyID)
	}
	wg.Wait()

	return nil
}

// ComputeMatchesForCompany recomputes one company's match for every grant in
// an active status, concurrently, with the same failure-swallowing policy.
func (s *Service) ComputeMatchesForCompany(ctx context.Context, companyID uuid.UUID) error {
	grantIDs, err := s.store.ListActiveGrantIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active grants: %w", err)
	}

	var wg sync.WaitGroup
	for _, grantID := range grantIDs {
		wg.Add(1)
		go func(grantID uuid.UUID) {
			defer wg.Done()
			if err := s.ComputeMatchForGrant(ctx, companyID, grantID); err != nil {
				log.Printf("match: recompute company=%s grant=%s failed: %v", companyID, grantID, err)
			}
		}(grantID)
	}
	wg.Wait()

	return nil
}

// MarkMatchesStale flags every existing match row for the grant without
// touching scores. Called immediately before a grant's rules change so
// readers see a staleness indicator until recomputation lands; only a
// successful recomputation clears the flag.
func (s *Service) MarkMatchesStale(ctx context.Context, grantID uuid.UUID) error {
	return s.store.MarkMatchesStale(ctx, grantID)
}
