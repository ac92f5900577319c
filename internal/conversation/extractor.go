package conversation

import (
	"context"
	"encoding/json"
	"strings"
)

// ReservationRow is a single parsed reservation from a filled sheet photo.
type ReservationRow struct {
	Month int    `json:"month"`
	Day   int    `json:"day"`
	Time  string `json:"time"`
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Note  string `json:"note"`
}

// Extractor turns free text or photos into structured data via an external
// model. All calls are blocking and may take several seconds; callers must
// run them off the webhook-handling goroutine.
//
// Parse failures are a normal outcome, not an error: the slice-returning
// operations report them as empty results so the engine can reprompt.
type Extractor interface {
	// ExtractStoreName extracts a store name from freeform text. Best
	// effort: on model failure or empty output the trimmed input is
	// returned as-is.
	ExtractStoreName(ctx context.Context, text string) string

	// ExtractSeatCounts normalizes a seating description, seeded with the
	// previously captured value for incremental correction. Same best-effort
	// contract as ExtractStoreName.
	ExtractSeatCounts(ctx context.Context, text, previous string) string

	// ExtractTimeSlots reads the time-slot labels off a blank template
	// photo, in sheet order. An unusable photo yields an empty slice.
	ExtractTimeSlots(ctx context.Context, image []byte) []string

	// ExtractReservationRows reads reservation entries off a filled sheet
	// photo. An unusable photo yields an empty slice.
	ExtractReservationRows(ctx context.Context, image []byte) []ReservationRow
}

// decodeStringArray parses a JSON string array out of model output.
// Returns nil when no array can be recovered.
func decodeStringArray(raw string) []string {
	data := extractJSONArray(raw)
	if data == "" {
		return nil
	}

	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}

	cleaned := out[:0]
	for _, s := range out {
		s = strings.TrimSpace(s)
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// decodeReservationRows parses a JSON array of reservation objects out of
// model output. Returns nil when no array can be recovered.
func decodeReservationRows(raw string) []ReservationRow {
	data := extractJSONArray(raw)
	if data == "" {
		return nil
	}

	var out []ReservationRow
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// extractJSONArray pulls the first JSON array out of model text, tolerating
// Markdown code fences and prose around the payload. Models also sometimes
// wrap the array in an object; the bracket scan below still finds it.
func extractJSONArray(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
