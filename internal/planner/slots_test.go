package planner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestExtractor(provider *scriptedProvider) *SlotExtractor {
	e := NewSlotExtractor(nil, provider, "test-model")
	e.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestExtractCompleteRequest(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{
		"destination":      "Paris",
		"destination_iata": "CDG",
		"origin":           "New York",
		"origin_iata":      "JFK",
		"duration_days":    5,
		"budget_max":       3000,
		"start_date":       "2025-06-01",
		"is_complete":      true,
	})}}

	result := newTestExtractor(provider).Extract(context.Background(),
		"5 days in Paris from NYC, budget $3000, starting 2025-06-01",
		RequirementSet{}, Preferences{}, 0)

	if !result.Complete {
		t.Fatalf("expected complete extraction: %+v", result)
	}
	r := result.Requirements
	if r.Destination != "Paris" || r.Origin != "New York" || r.DurationDays != 5 || r.BudgetMax != 3000 {
		t.Fatalf("unexpected requirements: %+v", r)
	}
	if r.EndDate != "2025-06-06" {
		t.Fatalf("end date not derived: %q", r.EndDate)
	}
	if r.TravelGroup != "solo" || r.TravelerCount != 1 {
		t.Fatalf("group defaults not applied: %+v", r)
	}
}

func TestExtractMergesIntoPriorSet(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{
		"origin":      "New York",
		"origin_iata": "JFK",
		"is_complete": false,
	})}}
	prior := RequirementSet{Destination: "Paris", DurationDays: 5, StartDate: "2025-06-01", BudgetMax: 3000}

	result := newTestExtractor(provider).Extract(context.Background(), "from NYC", prior, Preferences{}, 1)

	if !result.Complete {
		t.Fatalf("merged set should be complete: %+v", result)
	}
	if result.Requirements.Destination != "Paris" || result.Requirements.Origin != "New York" {
		t.Fatalf("merge lost fields: %+v", result.Requirements)
	}
	if len(provider.requests) != 1 || !strings.Contains(provider.requests[0].SystemPrompt, "Slots already collected") {
		t.Fatal("prior slots not included in prompt")
	}
}

func TestExtractParseFailureAsksGenericFollowUp(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json at all"}}
	result := newTestExtractor(provider).Extract(context.Background(), "hmm", RequirementSet{}, Preferences{}, 0)

	if result.Complete {
		t.Fatalf("parse failure must not complete: %+v", result)
	}
	if result.FollowUp != genericFollowUp {
		t.Fatalf("unexpected follow-up: %q", result.FollowUp)
	}
}

func TestExtractForcesDefaultsAtRoundCeiling(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{"is_complete": false})}}
	result := newTestExtractor(provider).Extract(context.Background(), "idk", RequirementSet{}, Preferences{}, maxClarificationRounds)

	if !result.Complete {
		t.Fatalf("round ceiling must force completion: %+v", result)
	}
	r := result.Requirements
	if r.Destination != "Tokyo, Japan" || r.Origin != "New York" || r.DurationDays != 5 {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	if r.StartDate != "2025-05-31" {
		t.Fatalf("start date should be 30 days out: %q", r.StartDate)
	}
	if r.EndDate != "2025-06-05" {
		t.Fatalf("end date should be start+duration: %q", r.EndDate)
	}
	if r.BudgetMax != 2000 || r.TravelGroup != "solo" || r.TravelerCount != 1 {
		t.Fatalf("unexpected defaults: %+v", r)
	}
}

func TestExtractBackfillsFromPreferences(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{
		"destination":   "Paris",
		"origin":        "New York",
		"duration_days": 5,
		"start_date":    "2025-06-01",
		"is_complete":   false,
	})}}
	prefs := Preferences{
		BudgetRange: BudgetRange{Min: 1000, Max: 4000},
		Interests:   []string{"art", "food"},
		TravelStyle: "romantic getaways",
	}

	result := newTestExtractor(provider).Extract(context.Background(), "Paris for 5 days", RequirementSet{}, prefs, 0)

	r := result.Requirements
	if r.BudgetMax != 4000 || r.BudgetMin != 1000 {
		t.Fatalf("budget not backfilled: %+v", r)
	}
	if len(r.Interests) != 2 {
		t.Fatalf("interests not backfilled: %+v", r)
	}
	if r.TravelGroup != "couple" || r.TravelerCount != 2 {
		t.Fatalf("group not derived from travel style: %+v", r)
	}
	if !result.Complete {
		t.Fatalf("backfilled budget should complete the set: %+v", result)
	}
}

func TestExtractEmptyMessageGreets(t *testing.T) {
	provider := &scriptedProvider{}
	result := newTestExtractor(provider).Extract(context.Background(), "  ", RequirementSet{}, Preferences{}, 0)

	if result.Complete {
		t.Fatalf("empty message must not complete: %+v", result)
	}
	if len(provider.requests) != 0 {
		t.Fatal("empty message should not reach the model")
	}
	if !strings.Contains(result.FollowUp, "Where would you like to go") {
		t.Fatalf("unexpected greeting: %q", result.FollowUp)
	}
}
