// Package gemini provides the playlist vibe summarizer backed by Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/osa030/moodbox/internal/domain/vibe"
)

const promptTemplate = `Analyze the following list of songs from a Spotify playlist and describe the overall "vibe", mood, and energy. Provide %d short tags (e.g., "Upbeat", "Melancholic", "Gym") and %d suggested artists that are similar but NOT in the list.

Songs: %s`

// generator is the subset of genai.Models used by the client.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config represents Gemini client configuration.
type Config struct {
	APIKey   string
	Model    string
	TagCount int
}

// Client summarizes playlists with a JSON-mode Gemini call.
type Client struct {
	models   generator
	model    string
	tagCount int
}

// New creates a new Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	return newClient(client.Models, cfg), nil
}

func newClient(models generator, cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	tagCount := cfg.TagCount
	if tagCount <= 0 {
		tagCount = 3
	}
	return &Client{models: models, model: model, tagCount: tagCount}
}

// Summarize describes the vibe of the given track descriptions.
func (c *Client) Summarize(ctx context.Context, descriptions []string) (vibe.Summary, error) {
	if len(descriptions) == 0 {
		return vibe.Summary{}, errors.New("no tracks to analyze")
	}

	prompt := fmt.Sprintf(promptTemplate, c.tagCount, c.tagCount, strings.Join(descriptions, ", "))

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(c.tagCount),
	})
	if err != nil {
		return vibe.Summary{}, errors.Wrap(err, "gemini request failed")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return vibe.Summary{}, errors.New("no response from gemini")
	}

	var summary vibe.Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		return vibe.Summary{}, errors.Wrap(err, "failed to parse gemini response")
	}
	zlog.Debug().Msgf("gemini: summarized playlist: tracks=%d tags=%v", len(descriptions), summary.Tags)

	return summary, nil
}

func responseSchema(count int) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"vibe": {
				Type:        genai.TypeString,
				Description: "A 2-sentence description of the playlist's mood and musical style.",
			},
			"tags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: fmt.Sprintf("%d short stylistic tags", count),
			},
			"suggestedArtists": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: fmt.Sprintf("%d artists similar to the playlist vibe", count),
			},
		},
		Required: []string{"vibe", "tags", "suggestedArtists"},
	}
}
