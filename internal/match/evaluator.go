package match

import (
	"strconv"
	"strings"
	"time"

	"github.com/rowanhq/grantmatch/internal/models"
)

// Outcome is the tri-state result of evaluating one rule against one profile.
type Outcome string

const (
	OutcomeMatched   Outcome = "matched"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeUnknown   Outcome = "unknown"
)

// cmp carries everything a single operator needs: the profile value, the
// rule's string-encoded comparand, the rule field (for field-specific
// transforms) and the evaluation time.
type cmp struct {
	field   string
	profile any
	rule    string
	now     time.Time
}

// operators dispatches an operator tag to its comparison strategy.
var operators = map[string]func(cmp) Outcome{
	"exists":   opExists,
	"eq":       opEq,
	"in":       opIn,
	"not_in":   opNotIn,
	"contains": opContains,
	"gte":      opGte,
	"lte":      opLte,
}

// Evaluate decides matched/unmatched/unknown for a single rule. Pure, no
// side effects. Unknown covers: unmapped field, missing profile value,
// unrecognised operator, and non-numeric input to a numeric comparison.
// The rule's confidence level never influences the outcome.
func Evaluate(vocab Vocabulary, rule models.EligibilityRule, profile *models.CompanyProfile, now time.Time) Outcome {
	attr, ok := vocab.Fields[rule.Field]
	if !ok {
		return OutcomeUnknown
	}

	val, ok := profileValue(profile, attr)
	if !ok {
		return OutcomeUnknown
	}

	op, ok := operators[rule.Operator]
	if !ok {
		return OutcomeUnknown
	}

	return op(cmp{field: rule.Field, profile: val, rule: rule.Value, now: now})
}

func opExists(c cmp) Outcome {
	if truthy(c.profile) {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

func opEq(c cmp) Outcome {
	if b, ok := c.profile.(bool); ok {
		want := c.rule == "true" || c.rule == "1"
		if b == want {
			return OutcomeMatched
		}
		return OutcomeUnmatched
	}

	if strings.EqualFold(stringify(c.profile), c.rule) {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

func opIn(c cmp) Outcome {
	allowed := splitList(c.rule)

	if values, ok := c.profile.([]string); ok {
		if anyInSet(values, allowed) {
			return OutcomeMatched
		}
		return OutcomeUnmatched
	}

	if allowed[strings.ToLower(stringify(c.profile))] {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

func opNotIn(c cmp) Outcome {
	blocked := splitList(c.rule)

	if values, ok := c.profile.([]string); ok {
		if anyInSet(values, blocked) {
			return OutcomeUnmatched
		}
		return OutcomeMatched
	}

	if blocked[strings.ToLower(stringify(c.profile))] {
		return OutcomeUnmatched
	}
	return OutcomeMatched
}

func opContains(c cmp) Outcome {
	needle := strings.ToLower(c.rule)

	if values, ok := c.profile.([]string); ok {
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), needle) {
				return OutcomeMatched
			}
		}
		return OutcomeUnmatched
	}

	if strings.Contains(strings.ToLower(stringify(c.profile)), needle) {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

func opGte(c cmp) Outcome {
	num, ok := toNumber(c.profile)
	threshold, ok2 := toNumber(c.rule)
	if !ok || !ok2 {
		return OutcomeUnknown
	}

	// yearsOperating rules store a minimum age; the profile holds the
	// founding year, so derive the age first.
	if c.field == fieldYearsOperating {
		age := float64(c.now.Year()) - num
		if age >= threshold {
			return OutcomeMatched
		}
		return OutcomeUnmatched
	}

	if num >= threshold {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

func opLte(c cmp) Outcome {
	// TODO: an lte rule on yearsOperating compares the raw founding year,
	// not the derived age; confirm the intended comparison with product.
	num, ok := toNumber(c.profile)
	threshold, ok2 := toNumber(c.rule)
	if !ok || !ok2 {
		return OutcomeUnknown
	}

	if num <= threshold {
		return OutcomeMatched
	}
	return OutcomeUnmatched
}

// splitList parses a comma-separated rule value into a lowercased set.
// Entries are trimmed but empty entries are kept, matching how rule authors'
// values have always been parsed.
func splitList(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		set[strings.ToLower(strings.TrimSpace(part))] = true
	}
	return set
}

func anyInSet(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[strings.ToLower(v)] {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	case []string:
		return true
	}
	return false
}
