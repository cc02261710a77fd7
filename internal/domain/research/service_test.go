package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/akhawaja/medassist/internal/domain/evidence"
	"github.com/akhawaja/medassist/internal/infra/llm"
)

// ─── stubs ───────────────────────────────────────────────────────────────────

type stubSearcher struct {
	items []evidence.Item
	err   error
	calls int
}

func (s *stubSearcher) SearchEvidence(context.Context, string) ([]evidence.Item, error) {
	s.calls++
	return s.items, s.err
}

type stubTrials struct {
	items []evidence.Item
	calls int
}

func (s *stubTrials) SearchEvidence(context.Context, string, int) ([]evidence.Item, error) {
	s.calls++
	return s.items, nil
}

type stubDrugs struct {
	items []evidence.Item
	calls int
}

func (s *stubDrugs) LookupEvidence(context.Context, string) ([]evidence.Item, error) {
	s.calls++
	return s.items, nil
}

type stubStore struct {
	chunks []string
	calls  int
}

func (s *stubStore) Retrieve(context.Context, string, int) ([]string, error) {
	s.calls++
	return s.chunks, nil
}

type stubCaller struct {
	content string
	err     error
	calls   int
	prompts []string
}

func (s *stubCaller) Call(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls++
	if len(req.Messages) > 0 {
		s.prompts = append(s.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.content, StopReason: "stop"}, nil
}

func litItem(pmid, title string) evidence.Item {
	return evidence.Item{
		Source:  evidence.SourceLiterature,
		ID:      evidence.StrPtr(pmid),
		Title:   title,
		Summary: "Summary of " + title,
		URL:     evidence.StrPtr("https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"),
		Grade:   evidence.GradeB,
	}
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestAnswer_LiteratureOnly(t *testing.T) {
	t.Parallel()

	lit := &stubSearcher{items: []evidence.Item{
		litItem("11111111", "Ibuprofen GI safety"),
		litItem("22222222", "NSAID adverse events"),
	}}
	guide := &stubSearcher{} // zero results
	caller := &stubCaller{content: "Both studies report GI effects (PMID 11111111, PMID 22222222)."}

	svc := NewService(Config{Literature: lit, Guidelines: guide, Caller: caller})
	ans, err := svc.Answer(context.Background(), "common side effects of ibuprofen")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if ans.QueryType != evidence.QueryDrugInfo {
		t.Errorf("QueryType = %q, want drug_info", ans.QueryType)
	}
	if len(ans.Evidence) != 2 {
		t.Fatalf("evidence = %d items, want 2", len(ans.Evidence))
	}
	for _, item := range ans.Evidence {
		if item.Source != evidence.SourceLiterature {
			t.Errorf("item source = %q, want literature", item.Source)
		}
	}
	// Both identifiers appear in the final answer.
	for _, pmid := range []string{"11111111", "22222222"} {
		if !strings.Contains(ans.Text, pmid) {
			t.Errorf("answer missing PMID %s:\n%s", pmid, ans.Text)
		}
	}
}

func TestAnswer_NoEvidenceAnywhere(t *testing.T) {
	t.Parallel()

	caller := &stubCaller{content: "should not be called"}
	svc := NewService(Config{
		Literature: &stubSearcher{},
		Guidelines: &stubSearcher{},
		Store:      &stubStore{},
		Caller:     caller,
	})

	ans, err := svc.Answer(context.Background(), "an unanswerable question")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if caller.calls != 0 {
		t.Error("model must not be called when there is no evidence")
	}
	if !strings.Contains(ans.Text, "No evidence was found") {
		t.Errorf("answer = %q, want the fixed no-evidence message", ans.Text)
	}
	if !strings.Contains(ans.Text, "an unanswerable question") {
		t.Error("no-evidence message must restate the question")
	}
}

func TestAnswer_ModelExhausted(t *testing.T) {
	t.Parallel()

	lit := &stubSearcher{items: []evidence.Item{litItem("33333333", "Some study")}}
	caller := &stubCaller{err: fmt.Errorf("%w after 5 attempts: rate limited", llm.ErrExhausted)}

	svc := NewService(Config{Literature: lit, Guidelines: &stubSearcher{}, Caller: caller})
	ans, err := svc.Answer(context.Background(), "anything")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
	if ans == nil || ans.Text != unavailableAnswer {
		t.Errorf("answer = %+v, want the unavailable message", ans)
	}
	// The unavailable message is not the no-evidence message.
	if strings.Contains(ans.Text, "No evidence was found") {
		t.Error("unavailable message must be distinct from the no-evidence message")
	}
}

func TestAnswer_LocalStoreFallback(t *testing.T) {
	t.Parallel()

	store := &stubStore{chunks: []string{"Stored chunk about migraines.", "Second stored chunk."}}
	caller := &stubCaller{content: "Based on local notes..."}

	svc := NewService(Config{
		Literature: &stubSearcher{},
		Guidelines: &stubSearcher{},
		Store:      store,
		Caller:     caller,
	})

	ans, err := svc.Answer(context.Background(), "what is a migraine")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if store.calls != 1 {
		t.Errorf("store calls = %d, want 1", store.calls)
	}
	if len(ans.Evidence) != 2 {
		t.Fatalf("evidence = %d items, want 2", len(ans.Evidence))
	}
	for _, item := range ans.Evidence {
		if item.Source != evidence.SourceLocalStore {
			t.Errorf("item source = %q, want local_store", item.Source)
		}
		if item.Grade != evidence.GradeUnknown {
			t.Errorf("item grade = %q, want unknown", item.Grade)
		}
	}
}

func TestAnswer_StoreNotConsultedWhenLiveEvidenceExists(t *testing.T) {
	t.Parallel()

	store := &stubStore{chunks: []string{"should not be used"}}
	lit := &stubSearcher{items: []evidence.Item{litItem("44444444", "Live result")}}
	svc := NewService(Config{
		Literature: lit,
		Guidelines: &stubSearcher{},
		Store:      store,
		Caller:     &stubCaller{content: "ok"},
	})

	if _, err := svc.Answer(context.Background(), "anything"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if store.calls != 0 {
		t.Error("store must only be consulted when live sources return nothing")
	}
}

func TestAnswer_DispatchByQueryType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query      string
		wantTrials bool
		wantDrugs  bool
	}{
		{"treatment for hypertension", true, false},
		{"how to prevent measles", true, false},
		{"side effects of aspirin medication", false, true},
		{"what is the spleen", false, false},
		{"how to diagnose anemia", false, false},
	}

	for _, tc := range cases {
		trials := &stubTrials{}
		drugs := &stubDrugs{}
		svc := NewService(Config{
			Literature: &stubSearcher{items: []evidence.Item{litItem("55555555", "x")}},
			Guidelines: &stubSearcher{},
			Trials:     trials,
			Drugs:      drugs,
			Caller:     &stubCaller{content: "ok"},
		})
		if _, err := svc.Answer(context.Background(), tc.query); err != nil {
			t.Fatalf("Answer(%q) failed: %v", tc.query, err)
		}
		if got := trials.calls > 0; got != tc.wantTrials {
			t.Errorf("%q: trials consulted = %v, want %v", tc.query, got, tc.wantTrials)
		}
		if got := drugs.calls > 0; got != tc.wantDrugs {
			t.Errorf("%q: drugs consulted = %v, want %v", tc.query, got, tc.wantDrugs)
		}
	}
}

func TestAnswer_MergeOrder(t *testing.T) {
	t.Parallel()

	guide := &stubSearcher{items: []evidence.Item{{
		Source: evidence.SourceGuideline, Title: "CDC Guidance", Grade: evidence.GradeGuideline,
	}}}
	trials := &stubTrials{items: []evidence.Item{{
		Source: evidence.SourceTrial, ID: evidence.StrPtr("NCT999"), Title: "Trial", Grade: evidence.GradeC,
	}}}
	lit := &stubSearcher{items: []evidence.Item{litItem("66666666", "Paper")}}

	svc := NewService(Config{
		Literature: lit,
		Guidelines: guide,
		Trials:     trials,
		Caller:     &stubCaller{content: "ok"},
	})

	ans, err := svc.Answer(context.Background(), "treatment for gout")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	// Merge order is literature, guidelines, trials regardless of which
	// goroutine finishes first.
	if len(ans.Evidence) != 3 {
		t.Fatalf("evidence = %d items, want 3", len(ans.Evidence))
	}
	wantOrder := []evidence.Source{evidence.SourceLiterature, evidence.SourceGuideline, evidence.SourceTrial}
	for i, want := range wantOrder {
		if ans.Evidence[i].Source != want {
			t.Errorf("evidence[%d].Source = %q, want %q", i, ans.Evidence[i].Source, want)
		}
	}
}

func TestAnswer_SourceErrorDegradesToEmpty(t *testing.T) {
	t.Parallel()

	lit := &stubSearcher{err: errors.New("pubmed down")}
	guide := &stubSearcher{items: []evidence.Item{{
		Source: evidence.SourceGuideline, Title: "CDC Guidance", Grade: evidence.GradeGuideline,
	}}}
	svc := NewService(Config{Literature: lit, Guidelines: guide, Caller: &stubCaller{content: "ok"}})

	ans, err := svc.Answer(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if len(ans.Evidence) != 1 || ans.Evidence[0].Source != evidence.SourceGuideline {
		t.Errorf("evidence = %+v, want only the guideline item", ans.Evidence)
	}
}

func TestAnswer_PromptCapsItems(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("verylongsummary ", 100)
	var items []evidence.Item
	for i := 0; i < 5; i++ {
		items = append(items, evidence.Item{
			Source:  evidence.SourceLiterature,
			ID:      evidence.StrPtr(fmt.Sprintf("7000000%d", i)),
			Title:   fmt.Sprintf("Study %d", i),
			Summary: long,
			Grade:   evidence.GradeC,
		})
	}
	caller := &stubCaller{content: "ok"}
	svc := NewService(Config{
		Literature: &stubSearcher{items: items},
		Guidelines: &stubSearcher{},
		Caller:     caller,
	})

	if _, err := svc.Answer(context.Background(), "anything"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	prompt := caller.prompts[0]
	// Items beyond the third never reach the prompt.
	if strings.Contains(prompt, "70000003") || strings.Contains(prompt, "70000004") {
		t.Error("prompt includes items past the top 3")
	}
	// Each included item is capped at 500 chars; three capped items plus
	// the template must stay well under the raw size.
	if len(prompt) > 2500 {
		t.Errorf("prompt length = %d, want capped context", len(prompt))
	}
}

func TestNoEvidenceAnswer_NeverFabricates(t *testing.T) {
	t.Parallel()

	got := noEvidenceAnswer("does drug X cure disease Y")
	if !strings.Contains(got, "does drug X cure disease Y") {
		t.Error("must restate the question")
	}
	if !strings.Contains(got, "no results") && !strings.Contains(got, "No evidence") {
		t.Error("must state explicitly that nothing was found")
	}
	if !strings.Contains(got, "Suggested next steps") {
		t.Error("must suggest next actions")
	}
}

func TestFormatAnswer_Sections(t *testing.T) {
	t.Parallel()

	items := []evidence.Item{
		litItem("88888888", "Key paper"),
		{Source: evidence.SourceGuideline, Title: "CDC Guidance on Flu", URL: evidence.StrPtr("https://www.cdc.gov/search.html?q=flu"), Grade: evidence.GradeGuideline},
		{Source: evidence.SourceTrial, ID: evidence.StrPtr("NCT01234567"), Title: "Flu trial", URL: evidence.StrPtr("https://clinicaltrials.gov/study/NCT01234567"), Grade: evidence.GradeC},
		{Source: evidence.SourceDrug, ID: evidence.StrPtr("5640"), Title: "oseltamivir", Grade: evidence.GradeUnknown},
	}
	got := formatAnswer("Synthesis text.", items)

	for _, want := range []string{"## Guidelines", "## Key Findings", "## Clinical Trials", "## Other Sources"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing section %q:\n%s", want, got)
		}
	}
	if !strings.Contains(got, "[PMID 88888888](https://pubmed.ncbi.nlm.nih.gov/88888888/)") {
		t.Errorf("missing resolvable literature citation:\n%s", got)
	}
	if !strings.Contains(got, "[NCT01234567](https://clinicaltrials.gov/study/NCT01234567)") {
		t.Errorf("missing resolvable trial citation:\n%s", got)
	}
}

func TestFormatAnswer_OmitsEmptySections(t *testing.T) {
	t.Parallel()

	got := formatAnswer("Text.", []evidence.Item{litItem("99999999", "Only paper")})
	if strings.Contains(got, "## Guidelines") || strings.Contains(got, "## Clinical Trials") {
		t.Errorf("empty sections must be omitted:\n%s", got)
	}
	if !strings.Contains(got, "## Key Findings") {
		t.Errorf("missing key findings section:\n%s", got)
	}
}
