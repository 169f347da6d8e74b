package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/govardhan-06/voyage-ai/internal/model"
)

// Clarification rounds allowed before the extractor force-fills the
// remaining required slots with defaults.
const maxClarificationRounds = 3

const genericFollowUp = "I had trouble understanding that. Could you tell me where you'd like to go and for how long?"

var groupSizeDefaults = map[string]int{
	"solo":    1,
	"couple":  2,
	"family":  4,
	"friends": 4,
}

// ExtractionResult is one SlotExtractor pass: the merged requirement set,
// whether it is complete, and the follow-up question to ask when it is not.
type ExtractionResult struct {
	Requirements RequirementSet
	Complete     bool
	FollowUp     string
}

// SlotExtractor turns a free-text message plus prior partial requirements
// into a merged, updated requirement set. Extraction failures are recovered
// locally with a generic follow-up, never surfaced as errors.
type SlotExtractor struct {
	provider model.Provider
	model    string
	logger   *log.Logger
	now      func() time.Time
}

func NewSlotExtractor(logger *log.Logger, provider model.Provider, modelName string) *SlotExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SlotExtractor{
		provider: provider,
		model:    modelName,
		logger:   logger,
		now:      time.Now,
	}
}

type slotExtraction struct {
	RequirementSet
	FollowUpQuestion string `json:"follow_up_question,omitempty"`
	IsComplete       bool   `json:"is_complete"`
}

// Extract runs one extraction pass. round counts completed clarification
// rounds for this session; once it reaches the ceiling without completeness
// the remaining required fields are force-filled so the workflow cannot
// stall on clarification forever.
func (e *SlotExtractor) Extract(ctx context.Context, message string, prior RequirementSet, prefs Preferences, round int) ExtractionResult {
	if strings.TrimSpace(message) == "" {
		return e.finish(prior, prefs, round, "Hi! I'd love to help you plan a trip. Where would you like to go?")
	}

	system := fmt.Sprintf(slotSystemPrompt, jsonBlock(prefs))
	if hasAnyField(prior) {
		system += fmt.Sprintf("\n\nSlots already collected:\n%s\n\nPlease update/merge with any new information from the user's latest message.", jsonBlock(prior))
	}

	extraction, ok := e.invoke(ctx, system, message)
	if !ok {
		return e.finish(prior, prefs, round, genericFollowUp)
	}

	merged := prior.Merge(extraction.RequirementSet)
	return e.finish(merged, prefs, round, extraction.FollowUpQuestion)
}

func (e *SlotExtractor) invoke(ctx context.Context, system, message string) (slotExtraction, bool) {
	resp, err := e.provider.Complete(ctx, model.CompletionRequest{
		Model:        e.model,
		SystemPrompt: system,
		Messages:     []model.Message{{Role: model.RoleUser, Content: message}},
		Temperature:  0.1,
		ForceJSON:    true,
	})
	if err != nil {
		e.logger.Printf("level=warn msg=\"slot extraction call failed\" error=%q", err)
		return slotExtraction{}, false
	}

	var extraction slotExtraction
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Content)), &extraction); err != nil {
		e.logger.Printf("level=warn msg=\"slot extraction parse failed\" error=%q", err)
		return slotExtraction{}, false
	}
	return extraction, true
}

// finish applies preference backfills, derived fields, completeness rules and
// the round-ceiling escape valve to a merged set.
func (e *SlotExtractor) finish(merged RequirementSet, prefs Preferences, round int, followUp string) ExtractionResult {
	merged = backfillFromPreferences(merged, prefs)
	complete := checkComplete(&merged)

	if !complete && round >= maxClarificationRounds {
		merged = e.forceDefaults(merged)
		complete = true
	}
	if complete {
		merged = deriveEndDate(merged)
		return ExtractionResult{Requirements: merged, Complete: true}
	}

	if strings.TrimSpace(followUp) == "" {
		followUp = "Could you provide more details about your trip?"
	}
	return ExtractionResult{Requirements: merged, FollowUp: followUp}
}

func backfillFromPreferences(r RequirementSet, prefs Preferences) RequirementSet {
	if r.BudgetMax == 0 && prefs.BudgetRange.Max > 0 {
		r.BudgetMax = prefs.BudgetRange.Max
		if r.BudgetMin == 0 {
			r.BudgetMin = prefs.BudgetRange.Min
		}
	}
	if len(r.Interests) == 0 && len(prefs.Interests) > 0 {
		r.Interests = prefs.Interests
	}
	if r.TravelGroup == "" && prefs.TravelStyle != "" {
		style := strings.ToLower(prefs.TravelStyle)
		switch {
		case strings.Contains(style, "solo"):
			r.TravelGroup = "solo"
		case strings.Contains(style, "couple"), strings.Contains(style, "romantic"):
			r.TravelGroup = "couple"
		case strings.Contains(style, "family"):
			r.TravelGroup = "family"
		}
	}
	return r
}

// checkComplete reports whether all required slots are filled, defaulting the
// group type and traveler count as a side effect when they are.
func checkComplete(r *RequirementSet) bool {
	if r.Destination == "" || r.Origin == "" || r.StartDate == "" || r.DurationDays <= 0 || r.BudgetMax <= 0 {
		return false
	}
	if r.TravelGroup == "" {
		r.TravelGroup = "solo"
	}
	if r.TravelerCount <= 0 {
		if count, ok := groupSizeDefaults[r.TravelGroup]; ok {
			r.TravelerCount = count
		} else {
			r.TravelerCount = 2
		}
	}
	return true
}

func (e *SlotExtractor) forceDefaults(r RequirementSet) RequirementSet {
	if r.Destination == "" {
		r.Destination = "Tokyo, Japan"
	}
	if r.Origin == "" {
		r.Origin = "New York"
	}
	if r.DurationDays <= 0 {
		r.DurationDays = 5
	}
	if r.StartDate == "" {
		r.StartDate = e.now().AddDate(0, 0, 30).Format("2006-01-02")
	}
	if r.BudgetMax <= 0 {
		r.BudgetMax = 2000
	}
	if r.TravelGroup == "" {
		r.TravelGroup = "solo"
	}
	if r.TravelerCount <= 0 {
		r.TravelerCount = 1
	}
	return r
}

func deriveEndDate(r RequirementSet) RequirementSet {
	if r.EndDate != "" || r.StartDate == "" || r.DurationDays <= 0 {
		return r
	}
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return r
	}
	r.EndDate = start.AddDate(0, 0, r.DurationDays).Format("2006-01-02")
	return r
}

func hasAnyField(r RequirementSet) bool {
	return r.Destination != "" || r.Origin != "" || r.StartDate != "" ||
		r.DurationDays > 0 || r.BudgetMax > 0 || len(r.Interests) > 0
}
