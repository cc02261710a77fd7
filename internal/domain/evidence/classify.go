package evidence

import "strings"

// classRule maps a query type to the keywords that select it.
// Rules are checked in order; the first match wins.
type classRule struct {
	qtype    QueryType
	keywords []string
}

var classRules = []classRule{
	{QueryDiagnosis, []string{"diagnose", "diagnosis", "differential", "identify"}},
	{QueryTreatment, []string{"treat", "treatment", "manage", "therapy", "intervention"}},
	{QueryPrognosis, []string{"prognosis", "outcome", "survival", "risk of recurrence"}},
	{QueryDrugInfo, []string{"drug", "medication", "dose", "side effect", "adverse", "pharmacology"}},
	{QueryPrevention, []string{"prevention", "prevent", "screening"}},
}

// Classify maps a research question to a QueryType by keyword matching.
// Matching is case-insensitive substring containment. Queries matching no
// rule classify as general.
func Classify(query string) QueryType {
	lower := strings.ToLower(query)
	for _, rule := range classRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.qtype
			}
		}
	}
	return QueryGeneral
}
