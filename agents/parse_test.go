package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONResponsePlainObject(t *testing.T) {
	data, err := ParseJSONResponse(`{"dispute_type": "contract", "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, "contract", data["dispute_type"])
}

func TestParseJSONResponseStripsFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"facts\": []}\n```"
	data, err := ParseJSONResponse(raw)
	require.NoError(t, err)
	assert.Contains(t, data, "facts")
}

func TestParseJSONResponseBareFences(t *testing.T) {
	data, err := ParseJSONResponse("```\n{\"ok\": true}\n```")
	require.NoError(t, err)
	assert.Equal(t, true, data["ok"])
}

func TestParseJSONResponseRejectsNonObject(t *testing.T) {
	_, err := ParseJSONResponse(`["just", "a", "list"]`)
	assert.Error(t, err)
}

func TestParseJSONResponseRejectsGarbage(t *testing.T) {
	_, err := ParseJSONResponse("I could not produce JSON, sorry.")
	assert.Error(t, err)
}

func TestConfidenceScoreDefaults(t *testing.T) {
	assert.Equal(t, 0.8, ConfidenceScore(map[string]interface{}{}))
	assert.Equal(t, 0.8, ConfidenceScore(map[string]interface{}{"confidence": "very high"}))
}

func TestConfidenceScoreClamps(t *testing.T) {
	assert.Equal(t, 1.0, ConfidenceScore(map[string]interface{}{"confidence": 3.2}))
	assert.Equal(t, 0.0, ConfidenceScore(map[string]interface{}{"confidence": -1.0}))
	assert.Equal(t, 0.45, ConfidenceScore(map[string]interface{}{"confidence": 0.45}))
}

func TestListFieldToleratesJunk(t *testing.T) {
	parsed := map[string]interface{}{
		"facts": []interface{}{
			map[string]interface{}{"content": "a"},
			"stray string",
			map[string]interface{}{"content": "b"},
		},
	}
	items := listField(parsed, "facts")
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0]["content"])

	assert.Nil(t, listField(parsed, "missing"))
	assert.Nil(t, listField(map[string]interface{}{"facts": "not a list"}, "facts"))
}
