package planner

import (
	"context"
	"strings"
	"testing"
)

func TestComposeBuildsItinerary(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{
		"title":               "Paris in Five Days",
		"total_cost_estimate": 2850,
		"currency":            "USD",
		"summary":             "Food, art and riverside walks.",
		"days": []map[string]any{
			{"day_number": 1, "date": "2025-06-01", "theme": "Arrival", "activities": []map[string]any{
				{"time": "09:00 AM", "title": "Flight to CDG", "cost_estimate": 850},
			}},
		},
		"reasoning": []string{"Kept day one light around the arrival flight."},
	})}}
	composer := NewComposer(nil, provider, "test-model")

	itinerary := composer.Compose(context.Background(), planRequirements, Strategy{Summary: "Paris"}, nil)

	if itinerary.Title != "Paris in Five Days" || len(itinerary.Days) != 1 {
		t.Fatalf("unexpected itinerary: %+v", itinerary)
	}
	if itinerary.Days[0].Activities[0].Title != "Flight to CDG" {
		t.Fatalf("activities lost: %+v", itinerary.Days[0])
	}
	system := provider.requests[0].SystemPrompt
	if !strings.Contains(system, "Paris") || !strings.Contains(system, "day-by-day") {
		t.Fatal("composer prompt missing context")
	}
}

func TestComposeWrapsToolResultsIntoPrompt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{"title": "T", "days": []any{}})}}
	composer := NewComposer(nil, provider, "test-model")

	results := map[string][]ToolResult{
		"search_flights": {{Name: "search_flights", Data: []byte(`{"total_results":2}`)}},
	}
	composer.Compose(context.Background(), planRequirements, Strategy{}, results)

	if !strings.Contains(provider.requests[0].SystemPrompt, "search_flights") {
		t.Fatal("tool results not interpolated into prompt")
	}
}

func TestComposeDerivesTotalFromActivityCosts(t *testing.T) {
	provider := &scriptedProvider{responses: []string{mustJSON(map[string]any{
		"title": "Paris on a Budget",
		"days": []map[string]any{
			{"day_number": 1, "activities": []map[string]any{
				{"title": "Flight", "cost_estimate": 850},
				{"title": "Dinner", "cost_estimate": 60},
			}},
			{"day_number": 2, "activities": []map[string]any{
				{"title": "Louvre", "cost_estimate": 22},
			}},
		},
	})}}
	composer := NewComposer(nil, provider, "test-model")

	itinerary := composer.Compose(context.Background(), planRequirements, Strategy{}, nil)
	if itinerary.TotalCostEstimate != 932 {
		t.Fatalf("total = %v, want sum of activity costs", itinerary.TotalCostEstimate)
	}
}

func TestComposeFallsBackOnBadOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"```\nbroken"}}
	composer := NewComposer(nil, provider, "test-model")

	itinerary := composer.Compose(context.Background(), planRequirements, Strategy{}, nil)

	if itinerary.Title != "Trip to Paris" {
		t.Fatalf("expected fallback title, got %q", itinerary.Title)
	}
	if itinerary.TotalCostEstimate != 3000 || itinerary.Currency != "USD" {
		t.Fatalf("fallback not derived from requirements: %+v", itinerary)
	}
	if len(itinerary.Days) != 0 {
		t.Fatalf("fallback days must be empty: %+v", itinerary.Days)
	}
	if len(itinerary.Reasoning) == 0 || !strings.Contains(itinerary.Reasoning[0], "Error generating") {
		t.Fatalf("fallback reasoning missing: %+v", itinerary.Reasoning)
	}
}

func TestComposeStripsCodeFences(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```json\n" + mustJSON(map[string]any{"title": "Fenced Trip", "days": []any{}}) + "\n```",
	}}
	composer := NewComposer(nil, provider, "test-model")

	itinerary := composer.Compose(context.Background(), planRequirements, Strategy{}, nil)
	if itinerary.Title != "Fenced Trip" {
		t.Fatalf("fence stripping failed: %+v", itinerary)
	}
}
