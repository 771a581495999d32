package gemini

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
	text   string
	err    error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}, Role: "model"},
		}},
	}, nil
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{text: `{"vibe":"Warm and hazy.","tags":["Chill","Lo-fi","Night"],"suggestedArtists":["A","B","C"]}`}
	client := newClient(gen, Config{Model: "test-model"})

	summary, err := client.Summarize(context.Background(), []string{"Song by Band", "Other by Artist"})
	require.NoError(t, err)

	assert.Equal(t, "Warm and hazy.", summary.Vibe)
	assert.Equal(t, []string{"Chill", "Lo-fi", "Night"}, summary.Tags)
	assert.Equal(t, []string{"A", "B", "C"}, summary.SuggestedArtists)

	assert.Equal(t, "test-model", gen.model)
	assert.Contains(t, gen.prompt, "Songs: Song by Band, Other by Artist")
	assert.Contains(t, gen.prompt, "Provide 3 short tags")
	require.NotNil(t, gen.config)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Contains(t, gen.config.ResponseSchema.Properties, "suggestedArtists")
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name         string
		gen          *fakeGenerator
		descriptions []string
	}{
		{name: "no tracks", gen: &fakeGenerator{}, descriptions: nil},
		{name: "request fails", gen: &fakeGenerator{err: errors.New("quota exceeded")}, descriptions: []string{"x"}},
		{name: "empty response", gen: &fakeGenerator{text: "  "}, descriptions: []string{"x"}},
		{name: "malformed json", gen: &fakeGenerator{text: "not json"}, descriptions: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(tt.gen, Config{})
			_, err := client.Summarize(context.Background(), tt.descriptions)
			assert.Error(t, err)
		})
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	client := newClient(&fakeGenerator{}, Config{})
	assert.Equal(t, "gemini-2.5-flash", client.model)
	assert.Equal(t, 3, client.tagCount)
}
