package planner

import (
	"context"
	"fmt"
	"io"
	"log"
)

// Records handed to the persistence layer by the finalizer. They mirror the
// session fields deterministically; the store owns identifiers and
// timestamps.

type TripRecord struct {
	UserID         string
	Title          string
	Status         string
	Constraints    RequirementSet
	CurrentVersion int
}

type ItineraryVersionRecord struct {
	TripID        string
	VersionNumber int
	CreatedBy     string
	ChangeSummary string
	Itinerary     Itinerary
}

type ConversationRecord struct {
	TripID   string
	UserID   string
	Messages []Message
}

// TripWriter persists the finalized artifacts. Implemented by the store.
type TripWriter interface {
	SaveTrip(ctx context.Context, trip TripRecord) (string, error)
	SaveItineraryVersion(ctx context.Context, version ItineraryVersionRecord) (string, error)
	SaveConversation(ctx context.Context, conversation ConversationRecord) (string, error)
}

// Finalizer writes the approved plan: one trip, one itinerary version and
// one conversation transcript. Pure persistence, no routing.
//
// Re-invoking after a partial failure can duplicate records; there is no
// idempotency key. Callers must not retry blindly.
type Finalizer struct {
	trips  TripWriter
	logger *log.Logger
}

func NewFinalizer(logger *log.Logger, trips TripWriter) *Finalizer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Finalizer{trips: trips, logger: logger}
}

// Finalize persists the session's approved itinerary and returns the new
// trip and itinerary-version identifiers. Any write failure is fatal for the
// turn; the session must not be marked complete.
func (f *Finalizer) Finalize(ctx context.Context, state SessionState) (tripID, versionID string, err error) {
	itinerary := Itinerary{}
	if state.Itinerary != nil {
		itinerary = *state.Itinerary
	}

	title := itinerary.Title
	if title == "" {
		title = fmt.Sprintf("Trip to %s", destinationOrDefault(state.Requirements))
	}

	tripID, err = f.trips.SaveTrip(ctx, TripRecord{
		UserID:         state.UserID,
		Title:          title,
		Status:         "planning",
		Constraints:    state.Requirements,
		CurrentVersion: 1,
	})
	if err != nil {
		return "", "", fmt.Errorf("save trip: %w", err)
	}

	versionID, err = f.trips.SaveItineraryVersion(ctx, ItineraryVersionRecord{
		TripID:        tripID,
		VersionNumber: 1,
		CreatedBy:     "ai",
		ChangeSummary: "Initial AI-generated itinerary",
		Itinerary:     itinerary,
	})
	if err != nil {
		return "", "", fmt.Errorf("save itinerary version: %w", err)
	}

	if _, err := f.trips.SaveConversation(ctx, ConversationRecord{
		TripID:   tripID,
		UserID:   state.UserID,
		Messages: state.Messages,
	}); err != nil {
		return "", "", fmt.Errorf("save conversation: %w", err)
	}

	f.logger.Printf("level=info msg=\"trip finalized\" trip_id=%s version_id=%s user_id=%s", tripID, versionID, state.UserID)
	return tripID, versionID, nil
}
