package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rohanmehra24/memory-lane/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorerFiltersByConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://cdn.example.com/1.jpg", body["url"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tags":[
			{"name":"waterfall","confidence":0.93},
			{"name":"outdoor","confidence":0.51},
			{"name":"person","confidence":0.5},
			{"name":"indoor","confidence":0.12}
		]}`))
	}))
	defer srv.Close()

	s := NewScorer(srv.URL, "secret")

	result, err := s.Analyze(context.Background(), "https://cdn.example.com/1.jpg")
	require.NoError(t, err)

	assert.Equal(t, models.APIScores, result.API)
	// confidence must be strictly greater than 0.5
	assert.Equal(t, []string{"waterfall", "outdoor"}, result.Tags)
	assert.NotEmpty(t, result.Original, "unfiltered response retained")

	var original scorerResponse
	require.NoError(t, json.Unmarshal(result.Original, &original))
	assert.Len(t, original.Tags, 4)
}

func TestScorerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewScorer(srv.URL, "secret")
	_, err := s.Analyze(context.Background(), "https://cdn.example.com/1.jpg")
	assert.Error(t, err)
}

func TestFilterByConfidenceEmpty(t *testing.T) {
	assert.Empty(t, filterByConfidence(nil))
	assert.Empty(t, filterByConfidence([]scoredTag{{Name: "x", Confidence: 0.2}}))
}
