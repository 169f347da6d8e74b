package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/govardhan-06/voyage-ai/internal/ids"
	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/workflow"
)

// Memory is the in-memory twin of GormStore. Same contracts, no durability.
type Memory struct {
	mu            sync.Mutex
	users         map[string]User
	checkpoints   map[string][]workflow.Checkpoint
	trips         map[string]Trip
	versions      map[string][]ItineraryVersion
	conversations map[string]Conversation
}

func NewMemory() *Memory {
	return &Memory{
		users:         map[string]User{},
		checkpoints:   map[string][]workflow.Checkpoint{},
		trips:         map[string]Trip{},
		versions:      map[string][]ItineraryVersion{},
		conversations: map[string]Conversation{},
	}
}

func (m *Memory) SaveCheckpoint(_ context.Context, checkpoint workflow.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.checkpoints[checkpoint.ThreadID] {
		if existing.Version == checkpoint.Version {
			return workflow.ErrConcurrentModification
		}
	}
	m.checkpoints[checkpoint.ThreadID] = append(m.checkpoints[checkpoint.ThreadID], checkpoint)
	return nil
}

func (m *Memory) LatestCheckpoint(_ context.Context, threadID string) (workflow.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.checkpoints[threadID]
	if len(history) == 0 {
		return workflow.Checkpoint{}, workflow.ErrSessionNotFound
	}
	latest := history[0]
	for _, checkpoint := range history[1:] {
		if checkpoint.Version > latest.Version {
			latest = checkpoint
		}
	}
	return latest, nil
}

func (m *Memory) CreateUser(_ context.Context, user User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = ids.Prefixed("user")
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *Memory) GetUser(_ context.Context, userID string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) UpdatePreferences(_ context.Context, userID string, prefs planner.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Preferences = prefs
	user.UpdatedAt = time.Now().UTC()
	m.users[userID] = user
	return nil
}

func (m *Memory) Preferences(ctx context.Context, userID string) (planner.Preferences, error) {
	user, err := m.GetUser(ctx, userID)
	if err != nil {
		return planner.Preferences{}, err
	}
	return user.Preferences, nil
}

func (m *Memory) SaveTrip(_ context.Context, trip planner.TripRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	record := Trip{
		ID:             ids.Prefixed("trip"),
		UserID:         trip.UserID,
		Title:          trip.Title,
		Status:         trip.Status,
		Constraints:    trip.Constraints,
		CurrentVersion: trip.CurrentVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.trips[record.ID] = record
	return record.ID, nil
}

func (m *Memory) SaveItineraryVersion(_ context.Context, version planner.ItineraryVersionRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := ItineraryVersion{
		ID:            ids.Prefixed("itinver"),
		TripID:        version.TripID,
		VersionNumber: version.VersionNumber,
		CreatedBy:     version.CreatedBy,
		ChangeSummary: version.ChangeSummary,
		Itinerary:     version.Itinerary,
		CreatedAt:     time.Now().UTC(),
	}
	m.versions[version.TripID] = append(m.versions[version.TripID], record)
	return record.ID, nil
}

func (m *Memory) SaveConversation(_ context.Context, conversation planner.ConversationRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := Conversation{
		ID:        ids.Prefixed("conv"),
		TripID:    conversation.TripID,
		UserID:    conversation.UserID,
		Messages:  conversation.Messages,
		CreatedAt: time.Now().UTC(),
	}
	m.conversations[conversation.TripID] = record
	return record.ID, nil
}

func (m *Memory) GetTrip(_ context.Context, tripID string) (Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return Trip{}, ErrNotFound
	}
	return trip, nil
}

func (m *Memory) LatestItinerary(_ context.Context, tripID string) (ItineraryVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := m.versions[tripID]
	if len(versions) == 0 {
		return ItineraryVersion{}, ErrNotFound
	}
	latest := versions[0]
	for _, version := range versions[1:] {
		if version.VersionNumber > latest.VersionNumber {
			latest = version
		}
	}
	return latest, nil
}

func (m *Memory) GetConversation(_ context.Context, tripID string) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[tripID]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conversation, nil
}

func (m *Memory) ListTrips(_ context.Context, userID string, filter TripFilter) ([]Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	trips := make([]Trip, 0)
	for _, trip := range m.trips {
		if trip.UserID != userID {
			continue
		}
		if filter.Status != "" && trip.Status != filter.Status {
			continue
		}
		if filter.StartFrom != "" && trip.Constraints.StartDate < filter.StartFrom {
			continue
		}
		if filter.StartTo != "" && trip.Constraints.StartDate > filter.StartTo {
			continue
		}
		trips = append(trips, trip)
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].CreatedAt.After(trips[j].CreatedAt) })
	return page(trips, filter.Skip, filter.Limit), nil
}

func (m *Memory) ListItineraries(_ context.Context, userID string, skip, limit int) ([]ItineraryVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions := make([]ItineraryVersion, 0)
	for tripID, list := range m.versions {
		trip, ok := m.trips[tripID]
		if !ok || trip.UserID != userID {
			continue
		}
		versions = append(versions, list...)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].CreatedAt.After(versions[j].CreatedAt) })
	return page(versions, skip, limit), nil
}

func (m *Memory) Close() error {
	return nil
}

func page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
