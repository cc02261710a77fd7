// Package evidence defines the shared vocabulary of the research pipeline:
// evidence items collected from external sources, their grading, and the
// query classification that drives source dispatch.
package evidence

// Source identifies where an evidence item came from.
type Source string

const (
	SourceLiterature Source = "literature"
	SourceTrial      Source = "trial"
	SourceGuideline  Source = "guideline"
	SourceDrug       Source = "drug"
	SourceLocalStore Source = "local_store"
)

// Grade ranks the strength of an evidence item.
// A = meta-analysis or systematic review, B = randomized controlled trial,
// C = other study designs. Guideline and Unknown sit outside the A/B/C scale.
type Grade string

const (
	GradeA         Grade = "A"
	GradeB         Grade = "B"
	GradeC         Grade = "C"
	GradeGuideline Grade = "guideline"
	GradeUnknown   Grade = "unknown"
)

// QueryType is the classified intent of a research question.
type QueryType string

const (
	QueryDiagnosis  QueryType = "diagnosis"
	QueryTreatment  QueryType = "treatment"
	QueryPrognosis  QueryType = "prognosis"
	QueryDrugInfo   QueryType = "drug_info"
	QueryPrevention QueryType = "prevention"
	QueryGeneral    QueryType = "general"
)

// Item is one normalized piece of evidence. Items are immutable once
// created and live only for the duration of a single request.
type Item struct {
	Source  Source  `json:"source"`
	ID      *string `json:"id,omitempty"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
	URL     *string `json:"url,omitempty"`
	Grade   Grade   `json:"evidence_grade"`
}

// StrPtr returns a pointer to s. Convenience for optional Item fields.
func StrPtr(s string) *string { return &s }
