package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/govardhan-06/voyage-ai/internal/db"
	"github.com/govardhan-06/voyage-ai/internal/ids"
	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/workflow"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(driver, dsn string) (*GormStore, error) {
	gormDB, err := dbpkg.OpenGorm(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open gorm store: %w", err)
	}

	store := &GormStore{db: gormDB}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *GormStore) migrate() error {
	return s.db.AutoMigrate(&userRow{}, &checkpointRow{}, &tripRow{}, &itineraryVersionRow{}, &conversationRow{})
}

// ── Checkpoints ──

// SaveCheckpoint inserts one immutable checkpoint. The unique
// (thread, version) index is the compare-and-swap: a duplicate version means
// another request already advanced this thread.
func (s *GormStore) SaveCheckpoint(ctx context.Context, checkpoint workflow.Checkpoint) error {
	stateJSON, err := json.Marshal(checkpoint.State)
	if err != nil {
		return fmt.Errorf("encode checkpoint state: %w", err)
	}

	row := checkpointRow{
		ID:        ids.Prefixed("ckpt"),
		ThreadID:  checkpoint.ThreadID,
		Version:   checkpoint.Version,
		NextStage: string(checkpoint.NextStage),
		Pause:     string(checkpoint.Pause),
		StateJSON: string(stateJSON),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return workflow.ErrConcurrentModification
		}
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *GormStore) LatestCheckpoint(ctx context.Context, threadID string) (workflow.Checkpoint, error) {
	var row checkpointRow
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("version DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workflow.Checkpoint{}, workflow.ErrSessionNotFound
		}
		return workflow.Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return row.toCheckpoint()
}

// ── Users ──

func (s *GormStore) CreateUser(ctx context.Context, user User) (string, error) {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return "", fmt.Errorf("encode user preferences: %w", err)
	}

	now := time.Now().UTC()
	row := userRow{
		ID:              ids.Prefixed("user"),
		Email:           user.Email,
		Name:            user.Name,
		PreferencesJSON: string(prefsJSON),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return row.ID, nil
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return row.toRecord()
}

func (s *GormStore) UpdatePreferences(ctx context.Context, userID string, prefs planner.Preferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode user preferences: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", userID).Updates(map[string]any{
		"preferences_json": string(prefsJSON),
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("update preferences: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Preferences satisfies the workflow's preference loader.
func (s *GormStore) Preferences(ctx context.Context, userID string) (planner.Preferences, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return planner.Preferences{}, err
	}
	return user.Preferences, nil
}

// ── Trips (finalizer write side) ──

func (s *GormStore) SaveTrip(ctx context.Context, trip planner.TripRecord) (string, error) {
	constraintsJSON, err := json.Marshal(trip.Constraints)
	if err != nil {
		return "", fmt.Errorf("encode trip constraints: %w", err)
	}

	now := time.Now().UTC()
	row := tripRow{
		ID:              ids.Prefixed("trip"),
		UserID:          trip.UserID,
		Title:           trip.Title,
		Status:          trip.Status,
		StartDate:       trip.Constraints.StartDate,
		ConstraintsJSON: string(constraintsJSON),
		CurrentVersion:  trip.CurrentVersion,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create trip: %w", err)
	}
	return row.ID, nil
}

func (s *GormStore) SaveItineraryVersion(ctx context.Context, version planner.ItineraryVersionRecord) (string, error) {
	itineraryJSON, err := json.Marshal(version.Itinerary)
	if err != nil {
		return "", fmt.Errorf("encode itinerary: %w", err)
	}

	row := itineraryVersionRow{
		ID:            ids.Prefixed("itinver"),
		TripID:        version.TripID,
		VersionNumber: version.VersionNumber,
		CreatedBy:     version.CreatedBy,
		ChangeSummary: version.ChangeSummary,
		ItineraryJSON: string(itineraryJSON),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create itinerary version: %w", err)
	}
	return row.ID, nil
}

func (s *GormStore) SaveConversation(ctx context.Context, conversation planner.ConversationRecord) (string, error) {
	messagesJSON, err := json.Marshal(conversation.Messages)
	if err != nil {
		return "", fmt.Errorf("encode conversation: %w", err)
	}

	row := conversationRow{
		ID:           ids.Prefixed("conv"),
		TripID:       conversation.TripID,
		UserID:       conversation.UserID,
		MessagesJSON: string(messagesJSON),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return row.ID, nil
}

// ── Trips (read side) ──

func (s *GormStore) GetTrip(ctx context.Context, tripID string) (Trip, error) {
	var row tripRow
	err := s.db.WithContext(ctx).Where("id = ?", tripID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Trip{}, ErrNotFound
		}
		return Trip{}, fmt.Errorf("get trip: %w", err)
	}
	return row.toRecord()
}

func (s *GormStore) LatestItinerary(ctx context.Context, tripID string) (ItineraryVersion, error) {
	var row itineraryVersionRow
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("version_number DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItineraryVersion{}, ErrNotFound
		}
		return ItineraryVersion{}, fmt.Errorf("get itinerary version: %w", err)
	}
	return row.toRecord()
}

func (s *GormStore) GetConversation(ctx context.Context, tripID string) (Conversation, error) {
	var row conversationRow
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return row.toRecord()
}

func (s *GormStore) ListTrips(ctx context.Context, userID string, filter TripFilter) ([]Trip, error) {
	query := s.db.WithContext(ctx).Model(&tripRow{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartFrom != "" {
		query = query.Where("start_date >= ?", filter.StartFrom)
	}
	if filter.StartTo != "" {
		query = query.Where("start_date <= ?", filter.StartTo)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []tripRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	trips := make([]Trip, 0, len(rows))
	for _, row := range rows {
		trip, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func (s *GormStore) ListItineraries(ctx context.Context, userID string, skip, limit int) ([]ItineraryVersion, error) {
	tripIDs := s.db.Model(&tripRow{}).Select("id").Where("user_id = ?", userID)

	query := s.db.WithContext(ctx).Model(&itineraryVersionRow{}).
		Where("trip_id IN (?)", tripIDs).
		Order("created_at DESC")
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []itineraryVersionRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	versions := make([]ItineraryVersion, 0, len(rows))
	for _, row := range rows {
		version, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
