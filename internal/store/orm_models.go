package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/workflow"
)

type userRow struct {
	ID              string    `gorm:"primaryKey;size:64"`
	Email           string    `gorm:"size:191;uniqueIndex"`
	Name            string    `gorm:"size:191"`
	PreferencesJSON string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (userRow) TableName() string {
	return "users"
}

func (r userRow) toRecord() (User, error) {
	user := User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.PreferencesJSON != "" {
		if err := json.Unmarshal([]byte(r.PreferencesJSON), &user.Preferences); err != nil {
			return User{}, fmt.Errorf("decode user preferences: %w", err)
		}
	}
	return user, nil
}

type checkpointRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ThreadID  string    `gorm:"size:64;uniqueIndex:idx_checkpoints_thread_version,priority:1"`
	Version   int       `gorm:"not null;uniqueIndex:idx_checkpoints_thread_version,priority:2"`
	NextStage string    `gorm:"size:64;not null"`
	Pause     string    `gorm:"size:64;not null"`
	StateJSON string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (checkpointRow) TableName() string {
	return "checkpoints"
}

func (r checkpointRow) toCheckpoint() (workflow.Checkpoint, error) {
	var state planner.SessionState
	if err := json.Unmarshal([]byte(r.StateJSON), &state); err != nil {
		return workflow.Checkpoint{}, fmt.Errorf("decode checkpoint state: %w", err)
	}
	return workflow.Checkpoint{
		ThreadID:  r.ThreadID,
		Version:   r.Version,
		NextStage: workflow.Stage(r.NextStage),
		Pause:     workflow.PausePoint(r.Pause),
		State:     state,
	}, nil
}

type tripRow struct {
	ID              string    `gorm:"primaryKey;size:64"`
	UserID          string    `gorm:"size:64;index"`
	Title           string    `gorm:"size:255;not null"`
	Status          string    `gorm:"size:64;not null"`
	StartDate       string    `gorm:"size:10;index"`
	ConstraintsJSON string    `gorm:"type:text"`
	CurrentVersion  int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (tripRow) TableName() string {
	return "trips"
}

func (r tripRow) toRecord() (Trip, error) {
	trip := Trip{
		ID:             r.ID,
		UserID:         r.UserID,
		Title:          r.Title,
		Status:         r.Status,
		CurrentVersion: r.CurrentVersion,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ConstraintsJSON != "" {
		if err := json.Unmarshal([]byte(r.ConstraintsJSON), &trip.Constraints); err != nil {
			return Trip{}, fmt.Errorf("decode trip constraints: %w", err)
		}
	}
	return trip, nil
}

type itineraryVersionRow struct {
	ID            string    `gorm:"primaryKey;size:64"`
	TripID        string    `gorm:"size:64;uniqueIndex:idx_itinerary_versions_trip,priority:1"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_itinerary_versions_trip,priority:2"`
	CreatedBy     string    `gorm:"size:64"`
	ChangeSummary string    `gorm:"size:255"`
	ItineraryJSON string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (itineraryVersionRow) TableName() string {
	return "itinerary_versions"
}

func (r itineraryVersionRow) toRecord() (ItineraryVersion, error) {
	version := ItineraryVersion{
		ID:            r.ID,
		TripID:        r.TripID,
		VersionNumber: r.VersionNumber,
		CreatedBy:     r.CreatedBy,
		ChangeSummary: r.ChangeSummary,
		CreatedAt:     r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.ItineraryJSON), &version.Itinerary); err != nil {
		return ItineraryVersion{}, fmt.Errorf("decode itinerary: %w", err)
	}
	return version, nil
}

type conversationRow struct {
	ID           string    `gorm:"primaryKey;size:64"`
	TripID       string    `gorm:"size:64;index"`
	UserID       string    `gorm:"size:64;index"`
	MessagesJSON string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (conversationRow) TableName() string {
	return "conversations"
}

func (r conversationRow) toRecord() (Conversation, error) {
	conversation := Conversation{
		ID:        r.ID,
		TripID:    r.TripID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.MessagesJSON), &conversation.Messages); err != nil {
		return Conversation{}, fmt.Errorf("decode conversation messages: %w", err)
	}
	return conversation, nil
}
