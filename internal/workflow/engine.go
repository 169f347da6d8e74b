package workflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/govardhan-06/voyage-ai/internal/planner"
)

// Engine owns stage ordering, pause points and resume routing. It holds no
// session state between calls: everything a resume needs is reconstructed
// from the latest checkpoint.
type Engine struct {
	checkpoints CheckpointStore
	preferences PreferenceLoader
	extractor   *planner.SlotExtractor
	loop        *planner.PlanningLoop
	composer    *planner.Composer
	finalizer   *planner.Finalizer
	logger      *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(
	logger *log.Logger,
	checkpoints CheckpointStore,
	preferences PreferenceLoader,
	extractor *planner.SlotExtractor,
	loop *planner.PlanningLoop,
	composer *planner.Composer,
	finalizer *planner.Finalizer,
) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{
		checkpoints: checkpoints,
		preferences: preferences,
		extractor:   extractor,
		loop:        loop,
		composer:    composer,
		finalizer:   finalizer,
		logger:      logger,
		locks:       map[string]*sync.Mutex{},
	}
}

// Start creates a new session from the first user message and runs it to its
// first pause point.
func (e *Engine) Start(ctx context.Context, userID, message string) (Outcome, error) {
	threadID := uuid.NewString()
	unlock := e.lockThread(threadID)
	defer unlock()

	state := planner.SessionState{UserID: userID}.AppendMessage(planner.MessageRoleUser, message)
	e.logger.Printf("level=info msg=\"session started\" thread_id=%s user_id=%s", threadID, userID)
	return e.run(ctx, threadID, 0, StageContextLoad, state)
}

// Resume applies a patch to the latest checkpoint for threadID and continues
// the state machine from the checkpointed stage. Requests for one thread are
// serialized in-process; cross-process races are caught by the store's
// version compare-and-swap.
func (e *Engine) Resume(ctx context.Context, threadID string, patch Patch) (Outcome, error) {
	unlock := e.lockThread(threadID)
	defer unlock()

	checkpoint, err := e.checkpoints.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return Outcome{}, err
	}

	// A completed session has nothing left to run; resuming it is a no-op
	// that replays the terminal snapshot.
	if checkpoint.Pause == PauseCompleted {
		return Outcome{ThreadID: threadID, Pause: PauseCompleted, State: checkpoint.State}, nil
	}

	state, err := applyPatch(checkpoint, patch)
	if err != nil {
		return Outcome{}, err
	}
	return e.run(ctx, threadID, checkpoint.Version, checkpoint.NextStage, state)
}

// applyPatch validates the patch against the pause the session is resting at
// and folds it into the checkpointed state. Validation failures leave the
// checkpoint untouched.
func applyPatch(checkpoint Checkpoint, patch Patch) (planner.SessionState, error) {
	state := checkpoint.State

	switch checkpoint.Pause {
	case PauseClarificationNeeded:
		if patch.Message == "" {
			return state, fmt.Errorf("%w: clarification resume requires a message", ErrInvalidPatch)
		}
	case PauseReviewPending:
		if patch.Review == nil {
			return state, fmt.Errorf("%w: review resume requires a decision", ErrInvalidPatch)
		}
		if patch.Review.Status != planner.ReviewApproved && patch.Review.Status != planner.ReviewRevision {
			return state, fmt.Errorf("%w: unknown review decision %q", ErrInvalidPatch, patch.Review.Status)
		}
	default:
		return state, fmt.Errorf("%w: session is not at a resumable pause (%s)", ErrInvalidPatch, checkpoint.Pause)
	}

	if patch.Message != "" {
		state = state.AppendMessage(planner.MessageRoleUser, patch.Message)
	}
	if patch.Review != nil {
		state.ReviewStatus = patch.Review.Status
		if patch.Review.Status == planner.ReviewRevision {
			state.ReviewFeedback = patch.Review.Feedback
		} else {
			state.ReviewFeedback = ""
		}
	}
	return state, nil
}

// run drives the state machine until it reaches a pause, persisting a
// checkpoint immediately before returning control.
func (e *Engine) run(ctx context.Context, threadID string, version int, stage Stage, state planner.SessionState) (Outcome, error) {
	for {
		switch stage {
		case StageContextLoad:
			state.Preferences = e.loadPreferences(ctx, state.UserID)
			stage = StageSlotExtract

		case StageSlotExtract:
			result := e.extractor.Extract(ctx, state.LastUserMessage(), state.Requirements, state.Preferences, state.ClarificationRounds)
			state.Requirements = result.Requirements
			state.SlotsComplete = result.Complete
			state.ClarificationRounds++
			if !result.Complete {
				state = state.AppendMessage(planner.MessageRoleAI, result.FollowUp)
				return e.pause(ctx, threadID, version, StageSlotExtract, PauseClarificationNeeded, state)
			}
			state = state.AppendMessage(planner.MessageRoleAI, fmt.Sprintf(
				"Great! I have all the details I need. Let me plan your trip to %s from %s to %s!",
				state.Requirements.Destination, state.Requirements.StartDate, state.Requirements.EndDate,
			))
			stage = StagePlan

		case StagePlan:
			feedback := state.ReviewFeedback
			// Clear the decision before re-planning so a stale approved or
			// revision_requested value cannot be misread at the next review.
			state.ReviewStatus = planner.ReviewNone
			outcome := e.loop.Plan(ctx, planner.PlanInput{
				Requirements:   state.Requirements,
				Preferences:    state.Preferences,
				Feedback:       feedback,
				PriorStrategy:  state.Strategy,
				PriorItinerary: state.Itinerary,
			})
			state.Strategy = &outcome.Strategy
			state = state.RecordToolResults(outcome.ToolCalls, outcome.ToolResults)
			state = state.AppendMessage(planner.MessageRoleAI, fmt.Sprintf(
				"Planning complete! I researched your trip across %d tool calls. Now generating your day-by-day itinerary...",
				len(outcome.ToolCalls),
			))
			stage = StageCompose

		case StageCompose:
			itinerary := e.composer.Compose(ctx, state.Requirements, *state.Strategy, state.ToolResults)
			state.Itinerary = &itinerary
			state = state.AppendMessage(planner.MessageRoleAI, fmt.Sprintf(
				"Your itinerary for %s is ready! Total estimated cost: %s %.0f.",
				itinerary.Title, itinerary.Currency, itinerary.TotalCostEstimate,
			))
			return e.pause(ctx, threadID, version, StageReviewEvaluate, PauseReviewPending, state)

		case StageReviewEvaluate:
			if planner.EvaluateReview(state.ReviewStatus) == planner.RouteFinalize {
				state = state.AppendMessage(planner.MessageRoleAI, "Itinerary approved! Saving your trip now...")
				stage = StageFinalize
				continue
			}
			state.ReviewStatus = planner.ReviewRevision
			state = state.AppendMessage(planner.MessageRoleAI, "Got it! I'll re-plan based on your feedback and generate an updated itinerary.")
			stage = StagePlan

		case StageFinalize:
			tripID, versionID, err := e.finalizer.Finalize(ctx, state)
			if err != nil {
				// The session must not be marked complete; the checkpoint
				// stays at review so the caller can retry deliberately.
				return Outcome{}, fmt.Errorf("finalize session %s: %w", threadID, err)
			}
			state.TripID = tripID
			state.ItineraryVersionID = versionID
			state = state.AppendMessage(planner.MessageRoleAI, fmt.Sprintf(
				"Your trip has been saved! Trip ID: %s. You can view and refine your itinerary anytime.", tripID,
			))
			return e.pause(ctx, threadID, version, StageDone, PauseCompleted, state)

		default:
			return Outcome{}, fmt.Errorf("%w: unknown stage %q", ErrInvalidPatch, stage)
		}
	}
}

// pause persists the checkpoint for the next version and returns control.
// Nothing about the session may live only in process memory past this point.
func (e *Engine) pause(ctx context.Context, threadID string, version int, next Stage, at PausePoint, state planner.SessionState) (Outcome, error) {
	checkpoint := Checkpoint{
		ThreadID:  threadID,
		Version:   version + 1,
		NextStage: next,
		Pause:     at,
		State:     state,
	}
	if err := e.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return Outcome{}, err
	}
	e.logger.Printf("level=info msg=\"session paused\" thread_id=%s version=%d pause=%s next=%s", threadID, checkpoint.Version, at, next)
	return Outcome{ThreadID: threadID, Pause: at, State: state}, nil
}

// loadPreferences is best-effort: a missing user or store failure just means
// an empty preference snapshot.
func (e *Engine) loadPreferences(ctx context.Context, userID string) planner.Preferences {
	if e.preferences == nil || userID == "" {
		return planner.Preferences{}
	}
	prefs, err := e.preferences.Preferences(ctx, userID)
	if err != nil {
		e.logger.Printf("level=debug msg=\"preference load failed\" user_id=%s error=%q", userID, err)
		return planner.Preferences{}
	}
	return prefs
}

func (e *Engine) lockThread(threadID string) func() {
	e.mu.Lock()
	lock, ok := e.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[threadID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
