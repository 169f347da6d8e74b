package planner

import (
	"context"
	"encoding/json"
	"strings"
)

// ToolRunner executes one round's worth of whitelisted lookup calls and
// returns one result per call, errors captured in-band.
type ToolRunner interface {
	Execute(ctx context.Context, calls []ToolCall) []ToolResult
}

// stripJSONFences removes a markdown code fence around a JSON payload. Models
// frequently wrap responses in fences even when asked for raw JSON.
func stripJSONFences(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	return text
}

// jsonBlock renders a value as indented JSON for prompt interpolation.
func jsonBlock(v any) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
