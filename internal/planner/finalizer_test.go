package planner

import (
	"context"
	"errors"
	"testing"
)

type fakeTripWriter struct {
	trip         *TripRecord
	version      *ItineraryVersionRecord
	conversation *ConversationRecord
	tripErr      error
	versionErr   error
}

func (w *fakeTripWriter) SaveTrip(_ context.Context, trip TripRecord) (string, error) {
	if w.tripErr != nil {
		return "", w.tripErr
	}
	w.trip = &trip
	return "trip_abc", nil
}

func (w *fakeTripWriter) SaveItineraryVersion(_ context.Context, version ItineraryVersionRecord) (string, error) {
	if w.versionErr != nil {
		return "", w.versionErr
	}
	w.version = &version
	return "itinver_def", nil
}

func (w *fakeTripWriter) SaveConversation(_ context.Context, conversation ConversationRecord) (string, error) {
	w.conversation = &conversation
	return "conv_ghi", nil
}

func TestFinalizePersistsAllRecords(t *testing.T) {
	writer := &fakeTripWriter{}
	finalizer := NewFinalizer(nil, writer)

	state := SessionState{
		UserID:       "user_1",
		Requirements: planRequirements,
		Itinerary:    &Itinerary{Title: "Paris in Five Days", TotalCostEstimate: 2850, Currency: "USD"},
	}
	state = state.AppendMessage(MessageRoleUser, "5 days in Paris")
	state = state.AppendMessage(MessageRoleAI, "Here's your draft itinerary!")

	tripID, versionID, err := finalizer.Finalize(context.Background(), state)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if tripID != "trip_abc" || versionID != "itinver_def" {
		t.Fatalf("unexpected ids: %s %s", tripID, versionID)
	}
	if writer.trip.Title != "Paris in Five Days" || writer.trip.Status != "planning" || writer.trip.CurrentVersion != 1 {
		t.Fatalf("unexpected trip record: %+v", writer.trip)
	}
	if writer.version.TripID != "trip_abc" || writer.version.VersionNumber != 1 || writer.version.CreatedBy != "ai" {
		t.Fatalf("unexpected version record: %+v", writer.version)
	}
	if len(writer.conversation.Messages) != 2 || writer.conversation.UserID != "user_1" {
		t.Fatalf("unexpected conversation record: %+v", writer.conversation)
	}
}

func TestFinalizeDerivesTitleWhenMissing(t *testing.T) {
	writer := &fakeTripWriter{}
	finalizer := NewFinalizer(nil, writer)

	_, _, err := finalizer.Finalize(context.Background(), SessionState{
		UserID:       "user_1",
		Requirements: RequirementSet{Destination: "Lisbon"},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if writer.trip.Title != "Trip to Lisbon" {
		t.Fatalf("title not derived: %q", writer.trip.Title)
	}
}

func TestFinalizeSurfacesWriteFailures(t *testing.T) {
	writer := &fakeTripWriter{versionErr: errors.New("disk full")}
	finalizer := NewFinalizer(nil, writer)

	_, _, err := finalizer.Finalize(context.Background(), SessionState{UserID: "user_1"})
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if writer.conversation != nil {
		t.Fatal("conversation must not be written after a version failure")
	}
}
