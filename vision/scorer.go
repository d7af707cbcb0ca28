package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rohanmehra24/memory-lane/models"
)

// MinTagConfidence is the cutoff below which scored labels are dropped from
// the finalized tag list. The unfiltered response is still kept verbatim.
const MinTagConfidence = 0.5

// Scorer calls an analyze endpoint that returns confidence-scored labels
// (Azure Computer Vision shaped: {"tags":[{"name":...,"confidence":...}]}).
type Scorer struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

type scoredTag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type scorerResponse struct {
	Tags []scoredTag `json:"tags"`
}

func NewScorer(endpoint, apiKey string) *Scorer {
	return &Scorer{
		httpClient: http.DefaultClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

func (s *Scorer) Name() string { return models.APIScores }

func (s *Scorer) Analyze(ctx context.Context, imageURL string) (models.Analysis, error) {
	body, err := json.Marshal(map[string]string{"url": imageURL})
	if err != nil {
		return models.Analysis{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to call analyze endpoint: %v", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return models.Analysis{}, err
	}

	if res.StatusCode != http.StatusOK {
		return models.Analysis{}, fmt.Errorf("analyze endpoint returned status %d", res.StatusCode)
	}

	var parsed scorerResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.Analysis{}, fmt.Errorf("failed to decode analyze response: %v", err)
	}

	return models.Analysis{
		API:      models.APIScores,
		Tags:     filterByConfidence(parsed.Tags),
		Original: raw,
	}, nil
}

func filterByConfidence(tags []scoredTag) []string {
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag.Confidence > MinTagConfidence {
			kept = append(kept, tag.Name)
		}
	}
	return kept
}
