package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/workflow"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore("sqlite", filepath.Join(t.TempDir(), "voyage.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := planner.SessionState{UserID: "user_1"}.
		AppendMessage(planner.MessageRoleUser, "5 days in Paris")
	state.Requirements = planner.RequirementSet{Destination: "Paris", DurationDays: 5}

	err := s.SaveCheckpoint(ctx, workflow.Checkpoint{
		ThreadID:  "thread-1",
		Version:   1,
		NextStage: workflow.StageSlotExtract,
		Pause:     workflow.PauseClarificationNeeded,
		State:     state,
	})
	if err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	loaded, err := s.LatestCheckpoint(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if loaded.NextStage != workflow.StageSlotExtract || loaded.Pause != workflow.PauseClarificationNeeded {
		t.Fatalf("markers lost: %+v", loaded)
	}
	if loaded.State.Requirements.Destination != "Paris" || len(loaded.State.Messages) != 1 {
		t.Fatalf("state not reconstructed: %+v", loaded.State)
	}
}

func TestLatestCheckpointPicksHighestVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for version := 1; version <= 3; version++ {
		state := planner.SessionState{ClarificationRounds: version}
		err := s.SaveCheckpoint(ctx, workflow.Checkpoint{
			ThreadID: "thread-1", Version: version,
			NextStage: workflow.StageSlotExtract, Pause: workflow.PauseClarificationNeeded,
			State: state,
		})
		if err != nil {
			t.Fatalf("save v%d: %v", version, err)
		}
	}

	loaded, err := s.LatestCheckpoint(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != 3 || loaded.State.ClarificationRounds != 3 {
		t.Fatalf("expected version 3, got %+v", loaded)
	}
}

func TestSaveCheckpointDetectsVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	checkpoint := workflow.Checkpoint{
		ThreadID: "thread-1", Version: 1,
		NextStage: workflow.StageSlotExtract, Pause: workflow.PauseClarificationNeeded,
	}
	if err := s.SaveCheckpoint(ctx, checkpoint); err != nil {
		t.Fatalf("first save: %v", err)
	}
	err := s.SaveCheckpoint(ctx, checkpoint)
	if !errors.Is(err, workflow.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestLatestCheckpointUnknownThread(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LatestCheckpoint(context.Background(), "nope")
	if !errors.Is(err, workflow.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUserPreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID, err := s.CreateUser(ctx, User{
		Email: "ada@example.com",
		Name:  "Ada",
		Preferences: planner.Preferences{
			BudgetRange: planner.BudgetRange{Min: 1000, Max: 4000},
			Interests:   []string{"art"},
			TravelStyle: "solo adventures",
		},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		t.Fatalf("load preferences: %v", err)
	}
	if prefs.BudgetRange.Max != 4000 || prefs.TravelStyle != "solo adventures" {
		t.Fatalf("preferences lost: %+v", prefs)
	}

	if err := s.UpdatePreferences(ctx, userID, planner.Preferences{TravelStyle: "family trips"}); err != nil {
		t.Fatalf("update preferences: %v", err)
	}
	prefs, _ = s.Preferences(ctx, userID)
	if prefs.TravelStyle != "family trips" || prefs.BudgetRange.Max != 0 {
		t.Fatalf("update not applied: %+v", prefs)
	}

	if err := s.UpdatePreferences(ctx, "user_missing", planner.Preferences{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func finalizeSampleTrip(t *testing.T, s *GormStore, userID, destination, startDate string) string {
	t.Helper()
	tripID, err := s.SaveTrip(context.Background(), planner.TripRecord{
		UserID: userID,
		Title:  "Trip to " + destination,
		Status: "planning",
		Constraints: planner.RequirementSet{
			Destination: destination, StartDate: startDate, DurationDays: 5, BudgetMax: 3000,
		},
		CurrentVersion: 1,
	})
	if err != nil {
		t.Fatalf("save trip: %v", err)
	}
	if _, err := s.SaveItineraryVersion(context.Background(), planner.ItineraryVersionRecord{
		TripID: tripID, VersionNumber: 1, CreatedBy: "ai",
		ChangeSummary: "Initial AI-generated itinerary",
		Itinerary:     planner.Itinerary{Title: "Trip to " + destination, Currency: "USD"},
	}); err != nil {
		t.Fatalf("save version: %v", err)
	}
	if _, err := s.SaveConversation(context.Background(), planner.ConversationRecord{
		TripID: tripID, UserID: userID,
		Messages: []planner.Message{{Role: planner.MessageRoleUser, Content: "plan it"}},
	}); err != nil {
		t.Fatalf("save conversation: %v", err)
	}
	return tripID
}

func TestTripReadSide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tripID := finalizeSampleTrip(t, s, "user_1", "Paris", "2025-06-01")

	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if trip.Title != "Trip to Paris" || trip.Constraints.BudgetMax != 3000 {
		t.Fatalf("trip fields lost: %+v", trip)
	}

	version, err := s.LatestItinerary(ctx, tripID)
	if err != nil {
		t.Fatalf("latest itinerary: %v", err)
	}
	if version.VersionNumber != 1 || version.Itinerary.Title != "Trip to Paris" {
		t.Fatalf("unexpected version: %+v", version)
	}

	conversation, err := s.GetConversation(ctx, tripID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len(conversation.Messages) != 1 {
		t.Fatalf("messages lost: %+v", conversation)
	}

	if _, err := s.GetTrip(ctx, "trip_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTripsWithFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	finalizeSampleTrip(t, s, "user_1", "Paris", "2025-06-01")
	finalizeSampleTrip(t, s, "user_1", "Tokyo", "2025-09-15")
	finalizeSampleTrip(t, s, "user_2", "Lisbon", "2025-06-10")

	all, err := s.ListTrips(ctx, "user_1", TripFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 trips for user_1, got %d", len(all))
	}

	june, err := s.ListTrips(ctx, "user_1", TripFilter{StartFrom: "2025-06-01", StartTo: "2025-06-30"})
	if err != nil {
		t.Fatalf("list june: %v", err)
	}
	if len(june) != 1 || june[0].Constraints.Destination != "Paris" {
		t.Fatalf("date filter wrong: %+v", june)
	}

	paged, err := s.ListTrips(ctx, "user_1", TripFilter{Limit: 1, Skip: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("pagination wrong: %+v", paged)
	}

	versions, err := s.ListItineraries(ctx, "user_1", 0, 10)
	if err != nil {
		t.Fatalf("list itineraries: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 itineraries, got %d", len(versions))
	}
}

func TestMemoryStoreMatchesContracts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	checkpoint := workflow.Checkpoint{ThreadID: "t", Version: 1, NextStage: workflow.StageSlotExtract, Pause: workflow.PauseClarificationNeeded}
	if err := m.SaveCheckpoint(ctx, checkpoint); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveCheckpoint(ctx, checkpoint); !errors.Is(err, workflow.ErrConcurrentModification) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := m.LatestCheckpoint(ctx, "missing"); !errors.Is(err, workflow.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	tripID, err := m.SaveTrip(ctx, planner.TripRecord{UserID: "u", Title: "Trip to Rome", Status: "planning", CurrentVersion: 1})
	if err != nil {
		t.Fatalf("save trip: %v", err)
	}
	if _, err := m.SaveItineraryVersion(ctx, planner.ItineraryVersionRecord{TripID: tripID, VersionNumber: 1}); err != nil {
		t.Fatalf("save version: %v", err)
	}
	trips, err := m.ListTrips(ctx, "u", TripFilter{})
	if err != nil || len(trips) != 1 {
		t.Fatalf("list trips: %v %v", trips, err)
	}
	versions, err := m.ListItineraries(ctx, "u", 0, 0)
	if err != nil || len(versions) != 1 {
		t.Fatalf("list itineraries: %v %v", versions, err)
	}
}
