// Package research is the aggregator: it classifies the question, fans
// out to the relevant source clients, merges their evidence, falls back
// to the local knowledge store, and asks the model for a cited synthesis.
package research

import (
	"context"
	"errors"
	"sync"

	"github.com/akhawaja/medassist/internal/domain/audit"
	"github.com/akhawaja/medassist/internal/domain/evidence"
	"github.com/akhawaja/medassist/internal/infra/llm"
)

// ErrModelUnavailable is returned when the model retry budget is spent.
// Handlers map it to a 503.
var ErrModelUnavailable = errors.New("research: model temporarily unavailable")

// Client interfaces cover exactly the slice of each source the aggregator
// consumes; tests substitute stubs.

type LiteratureSearcher interface {
	SearchEvidence(ctx context.Context, query string) ([]evidence.Item, error)
}

type GuidelineSearcher interface {
	SearchEvidence(ctx context.Context, query string) ([]evidence.Item, error)
}

type TrialSearcher interface {
	SearchEvidence(ctx context.Context, query string, maxResults int) ([]evidence.Item, error)
}

type DrugLooker interface {
	LookupEvidence(ctx context.Context, name string) ([]evidence.Item, error)
}

// Retriever is the local knowledge store fallback.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// ModelCaller is the resilient chat front door.
type ModelCaller interface {
	Call(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Answer is the synthesized result for one question.
type Answer struct {
	Text      string
	QueryType evidence.QueryType
	Evidence  []evidence.Item
}

// Service aggregates evidence and synthesizes answers.
type Service struct {
	literature LiteratureSearcher
	guidelines GuidelineSearcher
	trials     TrialSearcher
	drugs      DrugLooker
	store      Retriever
	caller     ModelCaller
	auditor    *audit.Service

	maxTrials    int
	fallbackTopK int
}

// Config wires the service's collaborators. Auditor may be nil.
type Config struct {
	Literature LiteratureSearcher
	Guidelines GuidelineSearcher
	Trials     TrialSearcher
	Drugs      DrugLooker
	Store      Retriever
	Caller     ModelCaller
	Auditor    *audit.Service
}

// NewService creates the aggregator.
func NewService(cfg Config) *Service {
	return &Service{
		literature:   cfg.Literature,
		guidelines:   cfg.Guidelines,
		trials:       cfg.Trials,
		drugs:        cfg.Drugs,
		store:        cfg.Store,
		caller:       cfg.Caller,
		auditor:      cfg.Auditor,
		maxTrials:    3,
		fallbackTopK: 3,
	}
}

// Answer runs the full pipeline for one question.
func (s *Service) Answer(ctx context.Context, query string) (*Answer, error) {
	qtype := evidence.Classify(query)
	items := s.gather(ctx, query, qtype)

	// Live sources first; the local store only fills a total void.
	if len(items) == 0 && s.store != nil {
		items = s.fallback(ctx, query)
	}

	if len(items) == 0 {
		s.logOutcome(ctx, query, qtype, audit.OutcomeNoEvidence, 0)
		return &Answer{Text: noEvidenceAnswer(query), QueryType: qtype}, nil
	}

	resp, err := s.caller.Call(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: buildPrompt(query, items)}},
	})
	if err != nil {
		if errors.Is(err, llm.ErrExhausted) {
			s.logOutcome(ctx, query, qtype, audit.OutcomeUnavailable, len(items))
			return &Answer{Text: unavailableAnswer, QueryType: qtype, Evidence: items}, ErrModelUnavailable
		}
		return nil, err
	}

	s.logOutcome(ctx, query, qtype, audit.OutcomeAnswered, len(items))
	return &Answer{
		Text:      formatAnswer(resp.Content, items),
		QueryType: qtype,
		Evidence:  items,
	}, nil
}

// gather fans out to the sources selected by the classification and
// merges their results in a fixed order: literature, guidelines, trials,
// drugs. Source errors degrade to zero results from that source.
func (s *Service) gather(ctx context.Context, query string, qtype evidence.QueryType) []evidence.Item {
	var (
		wg    sync.WaitGroup
		slots [4][]evidence.Item
	)

	run := func(slot int, fn func() ([]evidence.Item, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := fn()
			if err != nil {
				return
			}
			slots[slot] = items
		}()
	}

	// Literature and guidelines are consulted for every question.
	run(0, func() ([]evidence.Item, error) { return s.literature.SearchEvidence(ctx, query) })
	run(1, func() ([]evidence.Item, error) { return s.guidelines.SearchEvidence(ctx, query) })

	if s.trials != nil && (qtype == evidence.QueryTreatment || qtype == evidence.QueryPrevention) {
		run(2, func() ([]evidence.Item, error) { return s.trials.SearchEvidence(ctx, query, s.maxTrials) })
	}
	if s.drugs != nil && qtype == evidence.QueryDrugInfo {
		run(3, func() ([]evidence.Item, error) { return s.drugs.LookupEvidence(ctx, query) })
	}

	wg.Wait()

	var merged []evidence.Item
	for _, slot := range slots {
		merged = append(merged, slot...)
	}
	return merged
}

// fallback wraps local store chunks as ungraded LocalStore items.
func (s *Service) fallback(ctx context.Context, query string) []evidence.Item {
	chunks, err := s.store.Retrieve(ctx, query, s.fallbackTopK)
	if err != nil {
		return nil
	}
	items := make([]evidence.Item, 0, len(chunks))
	for _, chunk := range chunks {
		items = append(items, evidence.Item{
			Source:  evidence.SourceLocalStore,
			Title:   capText(chunk, 80),
			Summary: chunk,
			Grade:   evidence.GradeUnknown,
		})
	}
	return items
}

func (s *Service) logOutcome(ctx context.Context, query string, qtype evidence.QueryType, outcome audit.Outcome, count int) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, query, string(qtype), outcome, count)
}
