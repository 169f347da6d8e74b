package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/govardhan-06/voyage-ai/internal/model"
)

// Upper bound on planning rounds. The loop has no other cancellation
// mechanism, so this is the only guard against a model that never stops.
const maxPlanningRounds = 10

// PlanOutcome is one full planning pass: the final strategy plus every tool
// call issued and every result received across all rounds.
type PlanOutcome struct {
	Strategy    Strategy
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// PlanInput carries the session context for one planning pass. Feedback and
// the prior strategy/itinerary are set only on revision passes.
type PlanInput struct {
	Requirements   RequirementSet
	Preferences    Preferences
	Feedback       string
	PriorStrategy  *Strategy
	PriorItinerary *Itinerary
}

// PlanningLoop runs the bounded iterative protocol against the model: each
// round the model either requests whitelisted tool calls or signals stop with
// a final strategy. Tool failures are fed back as context, never retried.
type PlanningLoop struct {
	provider model.Provider
	model    string
	tools    ToolRunner
	logger   *log.Logger
}

func NewPlanningLoop(logger *log.Logger, provider model.Provider, modelName string, tools ToolRunner) *PlanningLoop {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PlanningLoop{
		provider: provider,
		model:    modelName,
		tools:    tools,
		logger:   logger,
	}
}

// plannerResponse is the model's per-round reply.
type plannerResponse struct {
	Stop         bool       `json:"stop"`
	Reasoning    string     `json:"reasoning,omitempty"`
	ToolRequests []ToolCall `json:"tool_requests,omitempty"`

	Summary          string             `json:"summary,omitempty"`
	SelectedCities   []string           `json:"selected_cities,omitempty"`
	KeyExperiences   []string           `json:"key_experiences,omitempty"`
	BudgetAllocation map[string]float64 `json:"budget_allocation,omitempty"`
	CostEstimates    map[string]float64 `json:"cost_estimates,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
}

func (r plannerResponse) strategy() Strategy {
	return Strategy{
		Summary:          r.Summary,
		SelectedCities:   r.SelectedCities,
		KeyExperiences:   r.KeyExperiences,
		BudgetAllocation: r.BudgetAllocation,
		CostEstimates:    r.CostEstimates,
		Recommendations:  r.Recommendations,
		Warnings:         r.Warnings,
	}
}

// Plan always terminates within the round ceiling and always produces a
// strategy: the last parsed draft when the model never signals stop cleanly,
// or a minimal requirement-derived fallback when nothing ever parsed.
func (l *PlanningLoop) Plan(ctx context.Context, input PlanInput) PlanOutcome {
	system := fmt.Sprintf(plannerSystemPrompt, jsonBlock(input.Requirements), jsonBlock(input.Preferences), maxPlanningRounds)
	if input.Feedback != "" && input.PriorStrategy != nil {
		priorItinerarySummary := ""
		if input.PriorItinerary != nil {
			priorItinerarySummary = input.PriorItinerary.Summary
		}
		system += fmt.Sprintf(plannerRevisionPrompt, input.Feedback, jsonBlock(input.PriorStrategy), priorItinerarySummary)
	}

	messages := []model.Message{
		{Role: model.RoleUser, Content: "Begin planning. Decide which tools to call first."},
	}

	var (
		allCalls   []ToolCall
		allResults []ToolResult
		lastParsed *plannerResponse
	)

	for round := 1; round <= maxPlanningRounds; round++ {
		resp, err := l.provider.Complete(ctx, model.CompletionRequest{
			Model:        l.model,
			SystemPrompt: system,
			Messages:     messages,
			Temperature:  0.2,
			ForceJSON:    true,
		})
		if err != nil {
			l.logger.Printf("level=warn msg=\"planning round failed\" round=%d error=%q", round, err)
			continue
		}

		var parsed plannerResponse
		if err := json.Unmarshal([]byte(stripJSONFences(resp.Content)), &parsed); err != nil {
			if round < maxPlanningRounds {
				messages = append(messages,
					model.Message{Role: model.RoleAssistant, Content: resp.Content},
					model.Message{Role: model.RoleUser, Content: "Your response was not valid JSON. Please respond with a valid JSON object matching the schema."},
				)
				continue
			}
			break
		}

		messages = append(messages, model.Message{Role: model.RoleAssistant, Content: resp.Content})
		lastParsed = &parsed

		if parsed.Stop {
			break
		}
		if len(parsed.ToolRequests) == 0 {
			messages = append(messages, model.Message{
				Role:    model.RoleUser,
				Content: "You didn't request any tools and didn't set stop=true. Either call tools you need or set stop=true with your final strategy.",
			})
			continue
		}

		results := l.tools.Execute(ctx, parsed.ToolRequests)
		allCalls = append(allCalls, parsed.ToolRequests...)
		allResults = append(allResults, results...)

		messages = append(messages, model.Message{
			Role:    model.RoleUser,
			Content: roundFeedback(round, parsed.ToolRequests, results),
		})
	}

	strategy := fallbackStrategy(input.Requirements)
	if lastParsed != nil {
		strategy = lastParsed.strategy()
		if strings.TrimSpace(strategy.Summary) == "" {
			strategy.Summary = fallbackStrategy(input.Requirements).Summary
		}
	}

	return PlanOutcome{Strategy: strategy, ToolCalls: allCalls, ToolResults: allResults}
}

// roundFeedback renders one round's tool results as the next round's input,
// with an explicit no-retry instruction when any call failed.
func roundFeedback(round int, calls []ToolCall, results []ToolResult) string {
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.Name)
	}

	rendered := make(map[string]any, len(results))
	hasErrors := false
	for _, result := range results {
		var value any
		if result.Err != "" {
			hasErrors = true
			value = map[string]string{"error": result.Err}
		} else {
			value = json.RawMessage(result.Data)
		}
		if existing, ok := rendered[result.Name]; ok {
			if list, isList := existing.([]any); isList {
				rendered[result.Name] = append(list, value)
			} else {
				rendered[result.Name] = []any{existing, value}
			}
		} else {
			rendered[result.Name] = value
		}
	}

	errorNote := ""
	if hasErrors {
		errorNote = "\n\nSome tools returned errors. Do NOT retry them. " +
			"Use your own knowledge to estimate costs and details for the failed tools. " +
			"Proceed with planning using whatever data you have."
	}

	return fmt.Sprintf(
		"Round %d complete. Tools called: %s\n\nResults:\n%s%s\n\n"+
			"Analyze these results. Then either:\n"+
			"- Call more tools if you need additional data (but do NOT retry failed tools)\n"+
			"- Set stop=true and provide your final strategy if you have enough info\n\n"+
			"Rounds remaining: %d",
		round, strings.Join(names, ", "), jsonBlock(rendered), errorNote, maxPlanningRounds-round,
	)
}

// fallbackStrategy is the hand-built minimum used when no round ever parsed.
func fallbackStrategy(req RequirementSet) Strategy {
	destination := req.Destination
	if destination == "" {
		destination = "your destination"
	}
	total := req.BudgetMax
	if total <= 0 {
		total = 2000
	}
	return Strategy{
		Summary:        fmt.Sprintf("Trip to %s", destination),
		SelectedCities: []string{req.Destination},
		KeyExperiences: []string{"Local food", "Cultural sites", "City exploration"},
		BudgetAllocation: map[string]float64{
			"flights": 30, "hotels": 35, "activities": 20, "food": 10, "misc": 5,
		},
		CostEstimates:   map[string]float64{"total": total},
		Recommendations: []string{"Explore local food markets", "Visit cultural landmarks"},
	}
}
