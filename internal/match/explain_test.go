package match

import "testing"

func TestExplanation_SentenceOrder(t *testing.T) {
	got := explanation(true, 2, 1, []string{"audit", "insurance"}, 3)
	want := "⚠ 1 mandatory eligibility criteria are not met. Missing documents: audit, insurance. 3 criteria could not be evaluated — profile data missing."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExplanation_NoProfileStillReportsUnknowns(t *testing.T) {
	got := explanation(false, 1, 0, nil, 4)
	want := "No company profile found — complete your organisation profile to enable matching. 4 criteria could not be evaluated — profile data missing."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExplanation_AllSatisfied(t *testing.T) {
	got := explanation(true, 3, 0, nil, 0)
	want := "✓ All 3 mandatory criteria are satisfied."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExplanation_NoMandatoryCriteria(t *testing.T) {
	got := explanation(true, 0, 0, nil, 0)
	want := "No mandatory criteria defined — match is based on scoring criteria only."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
