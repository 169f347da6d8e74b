// Package httpapi exposes the chat endpoint driving the trip workflow plus
// the read side for finalized trips, itineraries and conversations.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/govardhan-06/voyage-ai/internal/planner"
	"github.com/govardhan-06/voyage-ai/internal/store"
	"github.com/govardhan-06/voyage-ai/internal/workflow"
)

// Chat statuses returned to the client.
const (
	StatusClarifying = "clarifying"
	StatusPlanning   = "planning"
	StatusReviewing  = "reviewing"
	StatusComplete   = "complete"
)

// SessionEngine is the workflow surface the transport needs.
type SessionEngine interface {
	Start(ctx context.Context, userID, message string) (workflow.Outcome, error)
	Resume(ctx context.Context, threadID string, patch workflow.Patch) (workflow.Outcome, error)
}

// Store is the persistence surface the transport needs: checkpoint peeking
// for review routing, users, and the trip read side.
type Store interface {
	LatestCheckpoint(ctx context.Context, threadID string) (workflow.Checkpoint, error)
	CreateUser(ctx context.Context, user store.User) (string, error)
	GetUser(ctx context.Context, userID string) (store.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs planner.Preferences) error
	GetTrip(ctx context.Context, tripID string) (store.Trip, error)
	LatestItinerary(ctx context.Context, tripID string) (store.ItineraryVersion, error)
	GetConversation(ctx context.Context, tripID string) (store.Conversation, error)
	ListTrips(ctx context.Context, userID string, filter store.TripFilter) ([]store.Trip, error)
	ListItineraries(ctx context.Context, userID string, skip, limit int) ([]store.ItineraryVersion, error)
}

type server struct {
	logger *log.Logger
	engine SessionEngine
	store  Store
}

const maxRequestBytes int64 = 1 << 20

func NewServer(logger *log.Logger, addr string, engine SessionEngine, st Store) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(logger, engine, st),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func NewHandler(logger *log.Logger, engine SessionEngine, st Store) http.Handler {
	h := &server{logger: logger, engine: engine, store: st}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /v1/chat", h.handleChat)
	mux.HandleFunc("GET /v1/chat/ws", h.handleChatWS)
	mux.HandleFunc("POST /v1/users", h.handleCreateUser)
	mux.HandleFunc("GET /v1/users/{id}", h.handleGetUser)
	mux.HandleFunc("PUT /v1/users/{id}/preferences", h.handleUpdatePreferences)
	mux.HandleFunc("GET /v1/users/{id}/trips", h.handleListTrips)
	mux.HandleFunc("GET /v1/users/{id}/itineraries", h.handleListItineraries)
	mux.HandleFunc("GET /v1/trips/{id}", h.handleGetTrip)
	mux.HandleFunc("GET /v1/trips/{id}/itinerary", h.handleGetItinerary)
	mux.HandleFunc("GET /v1/trips/{id}/conversation", h.handleGetConversation)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

type chatResponse struct {
	Status   string         `json:"status"`
	ThreadID string         `json:"thread_id"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req chatRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := s.processChat(r.Context(), req)
	if err != nil {
		status, message := chatErrorStatus(err)
		http.Error(w, message, status)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatWS runs the same chat exchange over a websocket: one request
// message in, one status message out, repeated until the client hangs up.
func (s *server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("level=warn msg=\"chat ws upgrade failed\" error=%q", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp, err := s.processChat(r.Context(), req)
		if err != nil {
			_, message := chatErrorStatus(err)
			if writeErr := conn.WriteJSON(map[string]any{"error": message}); writeErr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *server) processChat(ctx context.Context, req chatRequest) (chatResponse, error) {
	if req.UserID == "" {
		return chatResponse{}, fmt.Errorf("%w: user_id is required", workflow.ErrInvalidPatch)
	}
	if req.Message == "" {
		return chatResponse{}, fmt.Errorf("%w: message is required", workflow.ErrInvalidPatch)
	}

	var (
		outcome workflow.Outcome
		err     error
	)
	if req.ThreadID == "" {
		outcome, err = s.engine.Start(ctx, req.UserID, req.Message)
	} else {
		outcome, err = s.resume(ctx, req.ThreadID, req.Message)
	}
	if err != nil {
		return chatResponse{}, err
	}
	return buildChatResponse(outcome), nil
}

// resume peeks the latest checkpoint to decide how the message patches the
// session: at review, an affirmative message approves and anything else is
// revision feedback.
func (s *server) resume(ctx context.Context, threadID, message string) (workflow.Outcome, error) {
	checkpoint, err := s.store.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return workflow.Outcome{}, err
	}

	patch := workflow.Patch{Message: message}
	if checkpoint.Pause == workflow.PauseReviewPending {
		if planner.IsAffirmative(message) {
			patch.Review = &workflow.ReviewDecision{Status: planner.ReviewApproved}
		} else {
			patch.Review = &workflow.ReviewDecision{Status: planner.ReviewRevision, Feedback: message}
		}
	}
	return s.engine.Resume(ctx, threadID, patch)
}

func buildChatResponse(outcome workflow.Outcome) chatResponse {
	state := outcome.State
	resp := chatResponse{ThreadID: outcome.ThreadID, Message: latestAIMessage(state)}

	switch outcome.Pause {
	case workflow.PauseClarificationNeeded:
		resp.Status = StatusClarifying
		resp.Data = map[string]any{"slots_collected": state.Requirements}
	case workflow.PauseReviewPending:
		resp.Status = StatusReviewing
		resp.Message = fmt.Sprintf(
			"Here's your draft itinerary for %s! Review it below and reply 'approve' to finalize, or tell me what you'd like to change.",
			state.Requirements.Destination,
		)
		resp.Data = map[string]any{
			"itinerary":     state.Itinerary,
			"trip_request":  state.Requirements,
			"trip_strategy": state.Strategy,
		}
	case workflow.PauseCompleted:
		resp.Status = StatusComplete
		resp.Data = map[string]any{
			"trip_id":              state.TripID,
			"itinerary_version_id": state.ItineraryVersionID,
			"itinerary":            state.Itinerary,
			"trip_request":         state.Requirements,
		}
	default:
		resp.Status = StatusPlanning
		resp.Data = map[string]any{"trip_request": state.Requirements}
	}
	return resp
}

func latestAIMessage(state planner.SessionState) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == planner.MessageRoleAI {
			return state.Messages[i].Content
		}
	}
	return ""
}

func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, workflow.ErrInvalidPatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, workflow.ErrConcurrentModification):
		return http.StatusConflict, "session was modified concurrently, retry with the latest state"
	default:
		return http.StatusInternalServerError, "chat turn failed"
	}
}

type createUserRequest struct {
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Preferences planner.Preferences `json:"preferences"`
}

func (s *server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req createUserRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	userID, err := s.store.CreateUser(r.Context(), store.User{
		Email:       req.Email,
		Name:        req.Name,
		Preferences: req.Preferences,
	})
	if err != nil {
		s.logger.Printf("level=error msg=\"create user failed\" error=%q", err)
		http.Error(w, "create user failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": userID})
}

func (s *server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var prefs planner.Preferences
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&prefs); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.store.UpdatePreferences(r.Context(), r.PathValue("id"), prefs); err != nil {
		writeStoreError(w, err, "update preferences")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.store.GetTrip(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get trip")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *server) handleGetItinerary(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.LatestItinerary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get itinerary")
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (s *server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversation, err := s.store.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "get conversation")
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (s *server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.TripFilter{
		Status:    query.Get("status"),
		StartFrom: query.Get("start_from"),
		StartTo:   query.Get("start_to"),
		Skip:      intQuery(query.Get("skip"), 0),
		Limit:     intQuery(query.Get("limit"), 50),
	}

	trips, err := s.store.ListTrips(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		writeStoreError(w, err, "list trips")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": trips, "count": len(trips)})
}

func (s *server) handleListItineraries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := intQuery(query.Get("skip"), 0)
	limit := intQuery(query.Get("limit"), 50)

	versions, err := s.store.ListItineraries(r.Context(), r.PathValue("id"), skip, limit)
	if err != nil {
		writeStoreError(w, err, "list itineraries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itineraries": versions, "count": len(versions)})
}

func writeStoreError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, action+" failed", http.StatusInternalServerError)
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
