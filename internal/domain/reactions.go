package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// NormalizeReactions resolves like and recast counts from a provider reactions
// block. Each count is resolved independently, trying in order:
//
//	<kind>_count: 5        explicit number
//	<kind>: [..]           list of reactors, length is the count
//	<kind>: {"count": 7}   nested count
//
// Anything else, including a missing or malformed block, counts as zero.
// Negative or out-of-range numbers count as malformed.
func NormalizeReactions(raw json.RawMessage) (likes, recasts int) {
	if isNull(raw) {
		return 0, 0
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, 0
	}

	return reactionCount(fields, "likes"), reactionCount(fields, "recasts")
}

func reactionCount(fields map[string]json.RawMessage, kind string) int {
	if n, ok := asNumber(fields[kind+"_count"]); ok {
		return n
	}
	if n, ok := asListLen(fields[kind]); ok {
		return n
	}
	if n, ok := asNestedCount(fields[kind]); ok {
		return n
	}
	return 0
}

func asNumber(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return CountFromFloat(f)
}

// CountFromFloat converts a provider count to int. Negative, non-finite and
// values above MaxCount are rejected.
func CountFromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > MaxCount {
		return 0, false
	}
	return int(f), true
}

func asListLen(raw json.RawMessage) (int, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return 0, false
	}
	return len(items), true
}

func asNestedCount(raw json.RawMessage) (int, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, false
	}
	var obj struct {
		Count json.RawMessage `json:"count"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return 0, false
	}
	return asNumber(obj.Count)
}

// MaxCount bounds a single reaction or reply count.
const MaxCount = math.MaxInt32

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
