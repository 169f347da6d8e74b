package planner

import (
	"strings"

	"github.com/samber/lo"
)

// Route names where the workflow goes after a review decision.
type Route int

const (
	RouteFinalize Route = iota
	RouteRevise
)

// Chat messages whose entire trimmed content matches one of these tokens are
// treated as approval while a session waits at review.
var affirmativeTokens = []string{"approve", "yes", "looks good", "confirm", "ok", "lgtm", "perfect"}

// IsAffirmative reports whether a raw chat message counts as itinerary
// approval. Matching is case-insensitive and exact after trimming; anything
// else is revision feedback.
func IsAffirmative(message string) bool {
	return lo.Contains(affirmativeTokens, strings.ToLower(strings.TrimSpace(message)))
}

// EvaluateReview routes on the recorded decision: approved goes to
// finalization, anything else (including empty) re-plans with the feedback
// carried forward. Pure routing, no synthesis.
func EvaluateReview(status string) Route {
	if status == ReviewApproved {
		return RouteFinalize
	}
	return RouteRevise
}
