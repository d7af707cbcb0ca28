package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rohanmehra24/memory-lane/models"
	openai "github.com/sashabaranov/go-openai"
)

const labelPrompt = `List the objects, scenes and concepts visible in this image as short lowercase labels. Respond with a single comma-separated line, nothing else.`

// Labeler asks a vision-capable chat model for a flat label list. The raw
// completion is retained in Analysis.Original.
type Labeler struct {
	client *openai.Client
	model  string
}

func NewLabeler(apiKey, baseURL, model string) *Labeler {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &Labeler{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (l *Labeler) Name() string { return models.APILabels }

func (l *Labeler) Analyze(ctx context.Context, imageURL string) (models.Analysis, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: labelPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("label completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return models.Analysis{}, errors.New("empty label response")
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return models.Analysis{}, err
	}

	return models.Analysis{
		API:      models.APILabels,
		Tags:     parseLabels(resp.Choices[0].Message.Content),
		Original: raw,
	}, nil
}

// parseLabels splits a comma- or newline-separated label line into clean
// lowercase tags.
func parseLabels(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		label := strings.ToLower(strings.Trim(f, " .\t"))
		if label != "" {
			tags = append(tags, label)
		}
	}
	return tags
}
