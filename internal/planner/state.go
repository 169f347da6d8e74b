// Package planner holds the session state threaded through the trip workflow
// and the stages that mutate it: slot extraction, the planning loop, itinerary
// composition, review evaluation and finalization.
package planner

import (
	"encoding/json"
	"strings"
)

// Message roles as they appear in persisted transcripts.
const (
	MessageRoleUser = "user"
	MessageRoleAI   = "ai"
)

// Review decisions recorded on the session.
const (
	ReviewNone     = ""
	ReviewApproved = "approved"
	ReviewRevision = "revision_requested"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BudgetRange is the stored user preference, distinct from the per-trip
// budget slots in RequirementSet.
type BudgetRange struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

// Preferences is the read-only snapshot loaded at session start.
type Preferences struct {
	BudgetRange BudgetRange `json:"budget_range,omitempty"`
	Interests   []string    `json:"interests,omitempty"`
	TravelStyle string      `json:"travel_style,omitempty"`
}

// RequirementSet holds the structured trip slots extracted from chat turns.
// The zero value of each field means "not yet filled".
type RequirementSet struct {
	Destination     string   `json:"destination,omitempty"`
	DestinationIATA string   `json:"destination_iata,omitempty"`
	Origin          string   `json:"origin,omitempty"`
	OriginIATA      string   `json:"origin_iata,omitempty"`
	DurationDays    int      `json:"duration_days,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	BudgetMin       float64  `json:"budget_min,omitempty"`
	BudgetMax       float64  `json:"budget_max,omitempty"`
	TravelGroup     string   `json:"travel_group,omitempty"`
	TravelerCount   int      `json:"traveler_count,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	Constraints     []string `json:"constraints,omitempty"`
}

// Merge folds an extraction into the receiver. Only fields the extraction
// actually populated overwrite prior values; filled fields are never cleared.
// Merging the same extraction twice yields the same set.
func (r RequirementSet) Merge(update RequirementSet) RequirementSet {
	merged := r
	if strings.TrimSpace(update.Destination) != "" {
		merged.Destination = update.Destination
	}
	if strings.TrimSpace(update.DestinationIATA) != "" {
		merged.DestinationIATA = strings.ToUpper(update.DestinationIATA)
	}
	if strings.TrimSpace(update.Origin) != "" {
		merged.Origin = update.Origin
	}
	if strings.TrimSpace(update.OriginIATA) != "" {
		merged.OriginIATA = strings.ToUpper(update.OriginIATA)
	}
	if update.DurationDays > 0 {
		merged.DurationDays = update.DurationDays
	}
	if strings.TrimSpace(update.StartDate) != "" {
		merged.StartDate = update.StartDate
	}
	if strings.TrimSpace(update.EndDate) != "" {
		merged.EndDate = update.EndDate
	}
	if update.BudgetMin > 0 {
		merged.BudgetMin = update.BudgetMin
	}
	if update.BudgetMax > 0 {
		merged.BudgetMax = update.BudgetMax
	}
	if strings.TrimSpace(update.TravelGroup) != "" {
		merged.TravelGroup = strings.ToLower(update.TravelGroup)
	}
	if update.TravelerCount > 0 {
		merged.TravelerCount = update.TravelerCount
	}
	if len(update.Interests) > 0 {
		merged.Interests = update.Interests
	}
	if len(update.Constraints) > 0 {
		merged.Constraints = update.Constraints
	}
	return merged
}

type ToolCall struct {
	Name   string         `json:"tool_name"`
	Params map[string]any `json:"parameters"`
}

// ToolResult is either a structured payload or an error marker for one call.
type ToolResult struct {
	Name string          `json:"tool_name"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  string          `json:"error,omitempty"`
}

// Strategy is the planning loop's output, replaced wholesale on revision.
type Strategy struct {
	Summary          string             `json:"summary"`
	SelectedCities   []string           `json:"selected_cities,omitempty"`
	KeyExperiences   []string           `json:"key_experiences,omitempty"`
	BudgetAllocation map[string]float64 `json:"budget_allocation,omitempty"`
	CostEstimates    map[string]float64 `json:"cost_estimates,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
}

type Activity struct {
	Time            string   `json:"time,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	LocationName    string   `json:"location_name,omitempty"`
	LocationAddress string   `json:"location_address,omitempty"`
	Latitude        float64  `json:"latitude,omitempty"`
	Longitude       float64  `json:"longitude,omitempty"`
	CostEstimate    float64  `json:"cost_estimate,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

type ItineraryDay struct {
	DayNumber  int        `json:"day_number"`
	Date       string     `json:"date,omitempty"`
	Theme      string     `json:"theme,omitempty"`
	Activities []Activity `json:"activities"`
}

type Itinerary struct {
	Title             string         `json:"title"`
	TotalCostEstimate float64        `json:"total_cost_estimate,omitempty"`
	Currency          string         `json:"currency,omitempty"`
	Summary           string         `json:"summary,omitempty"`
	Days              []ItineraryDay `json:"days"`
	Reasoning         []string       `json:"reasoning,omitempty"`
}

// SessionState is the single record threaded through every workflow stage.
// Stages receive it by value and return an updated copy.
type SessionState struct {
	UserID              string                  `json:"user_id"`
	Preferences         Preferences             `json:"preferences"`
	Messages            []Message               `json:"messages"`
	Requirements        RequirementSet          `json:"requirements"`
	SlotsComplete       bool                    `json:"slots_complete"`
	ClarificationRounds int                     `json:"clarification_rounds"`
	ToolCalls           []ToolCall              `json:"tool_calls,omitempty"`
	ToolResults         map[string][]ToolResult `json:"tool_results,omitempty"`
	Strategy            *Strategy               `json:"strategy,omitempty"`
	Itinerary           *Itinerary              `json:"itinerary,omitempty"`
	ReviewStatus        string                  `json:"review_status,omitempty"`
	ReviewFeedback      string                  `json:"review_feedback,omitempty"`
	TripID              string                  `json:"trip_id,omitempty"`
	ItineraryVersionID  string                  `json:"itinerary_version_id,omitempty"`
}

// AppendMessage returns the state with one more transcript entry. The log is
// append-only; nothing edits or removes prior entries.
func (s SessionState) AppendMessage(role, content string) SessionState {
	messages := make([]Message, 0, len(s.Messages)+1)
	messages = append(messages, s.Messages...)
	messages = append(messages, Message{Role: role, Content: content})
	s.Messages = messages
	return s
}

// LastUserMessage returns the most recent user turn, or "" if none exists.
func (s SessionState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == MessageRoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// RecordToolResults appends one round's results onto the accumulator. Results
// are keyed by tool name; repeat calls to the same tool within a pass extend
// the ordered list, so the latest value is the list's last element.
func (s SessionState) RecordToolResults(calls []ToolCall, results []ToolResult) SessionState {
	s.ToolCalls = append(append([]ToolCall{}, s.ToolCalls...), calls...)
	merged := make(map[string][]ToolResult, len(s.ToolResults)+len(results))
	for name, list := range s.ToolResults {
		merged[name] = list
	}
	for _, result := range results {
		merged[result.Name] = append(merged[result.Name], result)
	}
	s.ToolResults = merged
	return s
}
