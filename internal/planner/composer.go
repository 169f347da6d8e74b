package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/samber/lo"

	"github.com/govardhan-06/voyage-ai/internal/model"
)

// Composer turns the accumulated strategy and research into a structured
// day-by-day itinerary with a single synthesis call. It never fails: a bad
// or unparseable response degrades to a minimal requirement-derived plan.
type Composer struct {
	provider model.Provider
	model    string
	logger   *log.Logger
}

func NewComposer(logger *log.Logger, provider model.Provider, modelName string) *Composer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Composer{provider: provider, model: modelName, logger: logger}
}

func (c *Composer) Compose(ctx context.Context, req RequirementSet, strategy Strategy, toolResults map[string][]ToolResult) Itinerary {
	system := fmt.Sprintf(composerSystemPrompt, jsonBlock(req), jsonBlock(strategy), jsonBlock(toolResults))

	resp, err := c.provider.Complete(ctx, model.CompletionRequest{
		Model:        c.model,
		SystemPrompt: system,
		Messages:     []model.Message{{Role: model.RoleUser, Content: "Generate the day-by-day itinerary."}},
		Temperature:  0.3,
		ForceJSON:    true,
	})
	if err != nil {
		c.logger.Printf("level=warn msg=\"itinerary synthesis call failed\" error=%q", err)
		return fallbackItinerary(req, err)
	}

	var itinerary Itinerary
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Content)), &itinerary); err != nil {
		c.logger.Printf("level=warn msg=\"itinerary parse failed\" error=%q", err)
		return fallbackItinerary(req, err)
	}
	if itinerary.Currency == "" {
		itinerary.Currency = "USD"
	}
	if itinerary.Title == "" {
		itinerary.Title = fmt.Sprintf("Trip to %s", destinationOrDefault(req))
	}
	if itinerary.TotalCostEstimate == 0 {
		itinerary.TotalCostEstimate = lo.SumBy(itinerary.Days, func(day ItineraryDay) float64 {
			return lo.SumBy(day.Activities, func(activity Activity) float64 { return activity.CostEstimate })
		})
	}
	return itinerary
}

func fallbackItinerary(req RequirementSet, cause error) Itinerary {
	total := req.BudgetMax
	if total <= 0 {
		total = 2000
	}
	duration := req.DurationDays
	if duration <= 0 {
		duration = 5
	}
	return Itinerary{
		Title:             fmt.Sprintf("Trip to %s", destinationOrDefault(req)),
		TotalCostEstimate: total,
		Currency:          "USD",
		Summary:           fmt.Sprintf("A %d-day trip to %s.", duration, destinationOrDefault(req)),
		Days:              []ItineraryDay{},
		Reasoning:         []string{fmt.Sprintf("Error generating detailed itinerary: %v. Please try again.", cause)},
	}
}

func destinationOrDefault(req RequirementSet) string {
	if req.Destination != "" {
		return req.Destination
	}
	return "Your Destination"
}
