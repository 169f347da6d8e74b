// Package store persists users, session checkpoints and finalized trips. It
// implements the checkpoint contract of the workflow engine and the trip
// writer contract of the finalizer behind one GORM-backed store, with an
// in-memory twin for tests and ephemeral deployments.
package store

import (
	"errors"
	"time"

	"github.com/govardhan-06/voyage-ai/internal/planner"
)

var ErrNotFound = errors.New("record not found")

type User struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Preferences planner.Preferences `json:"preferences"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type Trip struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	Title          string                 `json:"title"`
	Status         string                 `json:"status"`
	Constraints    planner.RequirementSet `json:"trip_constraints"`
	CurrentVersion int                    `json:"current_version"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type ItineraryVersion struct {
	ID            string            `json:"id"`
	TripID        string            `json:"trip_id"`
	VersionNumber int               `json:"version_number"`
	CreatedBy     string            `json:"created_by"`
	ChangeSummary string            `json:"change_summary"`
	Itinerary     planner.Itinerary `json:"itinerary"`
	CreatedAt     time.Time         `json:"created_at"`
}

type Conversation struct {
	ID        string            `json:"id"`
	TripID    string            `json:"trip_id"`
	UserID    string            `json:"user_id"`
	Messages  []planner.Message `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
}

// TripFilter narrows trip listings. Zero values mean "no constraint"; dates
// filter on the trip's constraint start date (YYYY-MM-DD).
type TripFilter struct {
	Status    string
	StartFrom string
	StartTo   string
	Skip      int
	Limit     int
}
