// Package gemini analyzes scene photos with Google Gemini as an
// alternative to the default streamed Kimi pipeline.
package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/snapvocab/snapvocab/internal/analysis"
	"github.com/snapvocab/snapvocab/internal/config"
	"github.com/snapvocab/snapvocab/internal/models"
	"google.golang.org/api/option"
)

// Analyzer implements analysis.Analyzer on the Gemini API.
type Analyzer struct {
	apiKey func() string
	level  func() config.EnglishLevel
	model  string
}

// New returns a Gemini analyzer. The model defaults to gemini-2.0-flash
// and can be overridden with GEMINI_MODEL.
func New(apiKey func() string, level func() config.EnglishLevel) *Analyzer {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Analyzer{apiKey: apiKey, level: level, model: model}
}

// Analyze sends the image and the analysis prompt in one request.
// Gemini responses arrive whole, so progress fires once at the end.
func (g *Analyzer) Analyze(ctx context.Context, image []byte, progress func(string)) (*models.AnalysisResult, error) {
	key := g.apiKey()
	if key == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}

	encoded, err := analysis.EncodeImage(image)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.Text(analysis.BuildPrompt(g.level())),
		genai.ImageData(formatFor(encoded.Ext), encoded.Data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	if progress != nil {
		progress(string(txt))
	}
	return analysis.ParseResult(string(txt))
}

func formatFor(ext string) string {
	switch ext {
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	default:
		return "jpeg"
	}
}
