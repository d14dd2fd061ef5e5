package embedding

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc := NewService(srv.URL, "test-key", nil)
	// keep tests fast
	svc.policy.BaseDelay = 0
	return svc
}

// echoHandler returns one deterministic vector per input, with indices
// shuffled in the response to exercise order restoration.
func echoHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, 3)
			vec[0] = float64(i + 1)
			data[i] = item{Index: i, Embedding: vec}
		}
		rand.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API should not be called for empty input")
	})

	_, err := svc.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.Embed(context.Background(), "   \n\t  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	var gotLen int
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotLen = len(req.Input[0])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"index": 0, "embedding": []float64{0.1}}},
		})
	})

	_, err := svc.Embed(context.Background(), strings.Repeat("a", maxInputChars+5000))
	require.NoError(t, err)
	assert.Equal(t, maxInputChars, gotLen)
}

func TestTruncateRunesKeepsValidUTF8(t *testing.T) {
	// "§" is two bytes; an odd budget would land mid-rune
	text := strings.Repeat("§", 6)
	out := truncateRunes(text, 5)

	assert.Equal(t, strings.Repeat("§", 2), out)
	assert.True(t, utf8.ValidString(out))

	assert.Equal(t, "abc", truncateRunes("abc", 5), "short input untouched")
	assert.Equal(t, "ab", truncateRunes("abcd", 2))
}

func TestEmbedBatchPreservesLengthAndOrder(t *testing.T) {
	svc := newTestServer(t, echoHandler(t))

	texts := []string{"first", "", "third", "   ", "fifth"}
	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// empty items get zero vectors of full dimensionality
	assert.Len(t, vectors[1], Dimensions)
	assert.Len(t, vectors[3], Dimensions)
	for _, v := range vectors[1] {
		assert.Zero(t, v)
	}

	// non-empty items keep their positions despite shuffled response order
	assert.Equal(t, 1.0, vectors[0][0])
	assert.Equal(t, 2.0, vectors[2][0])
	assert.Equal(t, 3.0, vectors[4][0])
}

func TestEmbedBatchEmptySlice(t *testing.T) {
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API should not be called for an empty batch")
	})

	vectors, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedBatchChunksLargeInput(t *testing.T) {
	var calls int32
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		echoHandler(t)(w, r)
	})

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "text"
	}
	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 250)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	var calls int32
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		echoHandler(t)(w, r)
	})

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbedFailsOnMismatchedResponse(t *testing.T) {
	svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	})

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 vectors for 1 inputs")
}
