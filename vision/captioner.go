package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rohanmehra24/memory-lane/models"
	"google.golang.org/genai"
)

const captionPrompt = `Describe this photo in one short natural sentence, as a caption a person would write in a photo journal. Respond with the caption only.`

// Captioner produces a single caption sentence per image via Gemini. The
// image is fetched from its public URL and passed inline.
type Captioner struct {
	client     *genai.Client
	httpClient *http.Client
	model      string
}

func NewCaptioner(ctx context.Context, model string) (*Captioner, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %v", err)
	}

	return &Captioner{
		client:     client,
		httpClient: http.DefaultClient,
		model:      model,
	}, nil
}

func (c *Captioner) Name() string { return models.APICaption }

func (c *Captioner) Analyze(ctx context.Context, imageURL string) (models.Analysis, error) {
	data, mimeType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return models.Analysis{}, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(captionPrompt),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("caption generation failed: %w", err)
	}

	caption := strings.TrimSpace(result.Text())
	if caption == "" {
		return models.Analysis{}, errors.New("empty caption response")
	}

	raw, err := json.Marshal(caption)
	if err != nil {
		return models.Analysis{}, err
	}

	return models.Analysis{
		API:      models.APICaption,
		Tags:     []string{caption},
		Original: raw,
	}, nil
}

func (c *Captioner) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("received status code %d fetching image", res.StatusCode)
	}

	contentType := res.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", errors.New("URL does not point to an image")
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}

	return data, contentType, nil
}
