package planner

import "testing"

func TestIsAffirmative(t *testing.T) {
	for _, message := range []string{"approve", "APPROVE", "  yes ", "Looks Good", "lgtm", "ok", "Perfect"} {
		if !IsAffirmative(message) {
			t.Fatalf("%q should approve", message)
		}
	}
	for _, message := range []string{"", "no", "make day 2 cheaper", "approve but change the hotel", "yes please add museums"} {
		if IsAffirmative(message) {
			t.Fatalf("%q should be revision feedback", message)
		}
	}
}

func TestEvaluateReviewRouting(t *testing.T) {
	if EvaluateReview(ReviewApproved) != RouteFinalize {
		t.Fatal("approved must route to finalize")
	}
	if EvaluateReview(ReviewRevision) != RouteRevise {
		t.Fatal("revision_requested must route to re-plan")
	}
	if EvaluateReview("") != RouteRevise {
		t.Fatal("empty decision must route to re-plan")
	}
}
