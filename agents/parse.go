package agents

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseJSONResponse extracts a JSON object from an LLM completion. Models
// frequently wrap JSON in markdown code fences, so those are stripped first.
func ParseJSONResponse(raw string) (map[string]interface{}, error) {
	text := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}
	return parsed, nil
}

// ConfidenceScore reads a confidence value out of a parsed response,
// preferring confidence_score over confidence, clamping to [0, 1] and
// defaulting to 0.8 when absent or malformed.
func ConfidenceScore(parsed map[string]interface{}) float64 {
	const fallback = 0.8
	for _, key := range []string{"confidence_score", "confidence"} {
		v, ok := parsed[key]
		if !ok {
			continue
		}
		score, ok := toFloat(v)
		if !ok {
			continue
		}
		if score < 0 {
			return 0
		}
		if score > 1 {
			return 1
		}
		return score
	}
	return fallback
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// stringField returns a string value from a parsed response, or the
// fallback when the key is absent or not a string.
func stringField(parsed map[string]interface{}, key, fallback string) string {
	if s, ok := parsed[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// listField returns the named key as a slice of objects, tolerating both
// missing keys and scalar junk the model occasionally emits.
func listField(parsed map[string]interface{}, key string) []map[string]interface{} {
	raw, ok := parsed[key].([]interface{})
	if !ok {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items
}
