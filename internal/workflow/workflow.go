// Package workflow implements the checkpointed session state machine that
// sequences extraction, planning, synthesis, review and finalization.
// Sessions pause at well-defined points and resume from the latest persisted
// checkpoint, so consecutive turns may be served by different processes.
package workflow

import (
	"context"
	"errors"

	"github.com/govardhan-06/voyage-ai/internal/planner"
)

// Stage names which component executes next when a checkpoint is resumed.
type Stage string

const (
	StageContextLoad    Stage = "context_load"
	StageSlotExtract    Stage = "slot_extract"
	StagePlan           Stage = "plan"
	StageCompose        Stage = "compose"
	StageReviewEvaluate Stage = "review_evaluate"
	StageFinalize       Stage = "finalize"
	StageDone           Stage = "done"
)

// PausePoint is where a session is resting between requests.
type PausePoint string

const (
	// PauseRunning is never persisted; seeing it at rest means the engine
	// returned mid-flight, which is an internal inconsistency.
	PauseRunning             PausePoint = "running"
	PauseClarificationNeeded PausePoint = "clarification_needed"
	PauseReviewPending       PausePoint = "review_pending"
	PauseCompleted           PausePoint = "completed"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrInvalidPatch           = errors.New("invalid patch")
	ErrConcurrentModification = errors.New("concurrent session modification")
)

// Checkpoint is an immutable snapshot of a session: its full state plus the
// marker naming the stage to resume at. Only the latest version matters for
// resume; history is kept for audit.
type Checkpoint struct {
	ThreadID  string
	Version   int
	NextStage Stage
	Pause     PausePoint
	State     planner.SessionState
}

// CheckpointStore persists checkpoints with compare-and-swap semantics on
// (thread, version): saving a version that already exists must fail with
// ErrConcurrentModification so a stale resume can never clobber state.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error
	LatestCheckpoint(ctx context.Context, threadID string) (Checkpoint, error)
}

// PreferenceLoader reads a user's stored travel preferences at session start.
type PreferenceLoader interface {
	Preferences(ctx context.Context, userID string) (planner.Preferences, error)
}

// ReviewDecision is the human verdict patched in while a session waits at
// review.
type ReviewDecision struct {
	Status   string
	Feedback string
}

// Patch is the partial update a resume applies before re-entering the
// checkpointed stage: a new chat message, a review decision, or both.
type Patch struct {
	Message string
	Review  *ReviewDecision
}

// Outcome is what a start or resume returns to the transport layer.
type Outcome struct {
	ThreadID string
	Pause    PausePoint
	State    planner.SessionState
}
