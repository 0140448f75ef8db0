// Package analysis turns a photo into a word list and a descriptive
// sentence by way of a remote vision LLM.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/snapvocab/snapvocab/internal/models"
)

// ErrNoData reports a completion stream that finished without emitting
// any content.
var ErrNoData = errors.New("no response data received")

// ErrParse reports a completion that could not be decoded as the
// expected analysis payload.
var ErrParse = errors.New("failed to parse analysis response")

// Analyzer produces an analysis result for one encoded image. progress
// receives the accumulated response text as it streams in and may be
// nil.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, progress func(string)) (*models.AnalysisResult, error)
}

// ParseResult decodes the model's response text into an AnalysisResult.
// Markdown code fences around the JSON are tolerated; anything else
// malformed is an ErrParse.
func ParseResult(response string) (*models.AnalysisResult, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if response == "" {
		return nil, ErrNoData
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &result, nil
}
