package sources

import (
	"context"
	"testing"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

func TestGuidelinesSearchEvidence(t *testing.T) {
	t.Parallel()

	c := NewGuidelinesClient("https://www.cdc.gov/search.html")
	items, err := c.SearchEvidence(context.Background(), "flu vaccination adults")
	if err != nil {
		t.Fatalf("SearchEvidence failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	item := items[0]
	if item.Source != evidence.SourceGuideline {
		t.Errorf("Source = %q", item.Source)
	}
	if item.Grade != evidence.GradeGuideline {
		t.Errorf("Grade = %q", item.Grade)
	}
	if item.Title != "CDC Guidance on Flu Vaccination Adults" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.URL == nil || *item.URL != "https://www.cdc.gov/search.html?q=flu+vaccination+adults" {
		t.Errorf("URL = %v", item.URL)
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"flu vaccination", "Flu Vaccination"},
		{"COVID boosters", "COVID Boosters"},
		{"ünfall prevention", "Ünfall Prevention"},
		{"é", "É"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := titleCase(tc.in); got != tc.want {
			t.Errorf("titleCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGuidelinesSearchEvidence_BlankQuery(t *testing.T) {
	t.Parallel()

	c := NewGuidelinesClient("https://www.cdc.gov/search.html")
	items, err := c.SearchEvidence(context.Background(), "")
	if err != nil {
		t.Fatalf("SearchEvidence failed: %v", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil", items)
	}
}
