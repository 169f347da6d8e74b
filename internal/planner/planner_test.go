package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/govardhan-06/voyage-ai/internal/model"
)

// scriptedProvider replays canned completions in order and records every
// request it saw. Once the script runs out it keeps returning the last entry.
type scriptedProvider struct {
	responses []string
	err       error
	requests  []model.CompletionRequest
}

func (p *scriptedProvider) Complete(_ context.Context, req model.CompletionRequest) (model.CompletionResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return model.CompletionResponse{}, p.err
	}
	if len(p.responses) == 0 {
		return model.CompletionResponse{}, errors.New("script exhausted")
	}
	idx := len(p.requests) - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return model.CompletionResponse{Content: p.responses[idx], Model: req.Model, StopReason: "stop"}, nil
}

// fakeToolRunner answers every call with a canned payload, or an error for
// names listed in failing.
type fakeToolRunner struct {
	failing map[string]string
	batches [][]ToolCall
}

func (r *fakeToolRunner) Execute(_ context.Context, calls []ToolCall) []ToolResult {
	r.batches = append(r.batches, calls)
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		if msg, failed := r.failing[call.Name]; failed {
			results = append(results, ToolResult{Name: call.Name, Err: msg})
			continue
		}
		payload, _ := json.Marshal(map[string]any{"tool": call.Name, "total_results": 1})
		results = append(results, ToolResult{Name: call.Name, Data: payload})
	}
	return results
}

func mustJSON(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal test fixture: %v", err))
	}
	return string(encoded)
}
