package match

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rowanhq/grantmatch/internal/models"
)

func TestDefaultVocabulary_AliasesShareAttribute(t *testing.T) {
	vocab := DefaultVocabulary()

	if vocab.Fields["legalStructure"] != vocab.Fields["legalEntityType"] {
		t.Fatal("legalStructure and legalEntityType must resolve to the same attribute")
	}
	if vocab.Fields["industry"] != vocab.Fields["missionArea"] {
		t.Fatal("industry and missionArea must resolve to the same attribute")
	}
}

func TestLoadVocabulary_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `
fields:
  orgType: legal_entity_type
  region: ${VOCAB_TEST_REGION_ATTR}
documents:
  hasAuditedAccounts: audit
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("VOCAB_TEST_REGION_ATTR", "jurisdiction")

	vocab, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if vocab.Fields["orgType"] != AttrLegalEntityType {
		t.Fatalf("expected orgType -> legal_entity_type, got %s", vocab.Fields["orgType"])
	}
	if vocab.Fields["region"] != AttrJurisdiction {
		t.Fatalf("expected env-expanded region -> jurisdiction, got %s", vocab.Fields["region"])
	}
	if vocab.Docs["hasAuditedAccounts"] != "audit" {
		t.Fatalf("expected document mapping to survive, got %v", vocab.Docs)
	}

	// loaded vocabulary drives evaluation the same way the built-in one does
	profile := &models.CompanyProfile{LegalEntityType: strPtr("charity")}
	if got := Evaluate(vocab, rule("orgType", "eq", "charity"), profile, testNow); got != OutcomeMatched {
		t.Fatalf("expected matched via override vocabulary, got %s", got)
	}
}

func TestLoadVocabulary_RejectsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte("documents: {}\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadVocabulary(path); err == nil {
		t.Fatal("expected an error for a vocabulary with no fields")
	}
}
