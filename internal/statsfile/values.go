package statsfile

import (
	"encoding/json"
	"strconv"
)

// MergeValues combines two values that landed on the same stat key. Integer
// counts are added; anything else is replaced by incoming.
func MergeValues(existing, incoming any) any {
	a, okA := asInt(existing)
	b, okB := asInt(incoming)
	if !okA || !okB {
		return incoming
	}
	return json.Number(strconv.FormatInt(a+b, 10))
}

// IsNumber reports whether v is a JSON number as produced by ParseDocument
// or a Go numeric value.
func IsNumber(v any) bool {
	switch v.(type) {
	case json.Number, int, int64, float64:
		return true
	default:
		return false
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
