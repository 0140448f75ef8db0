package analysis

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/snapvocab/snapvocab/internal/config"
)

const sampleResponse = `{
	"words": [
		{
			"word": "Stool",
			"phoneticsymbols": "/stuːl/",
			"explanation": "凳子",
			"location": "0.55, 0.65"
		}
	],
	"sentence": {
		"text": "A green stool stands on a wooden floor.",
		"translation": "一个绿色的凳子放在木地板上。"
	}
}`

func TestParseResult(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"plain JSON", sampleResponse},
		{"json fence", "```json\n" + sampleResponse + "\n```"},
		{"bare fence", "```\n" + sampleResponse + "\n```"},
		{"surrounding whitespace", "\n  " + sampleResponse + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseResult(tt.response)
			if err != nil {
				t.Fatalf("ParseResult failed: %v", err)
			}
			if len(result.Words) != 1 || result.Words[0].Word != "Stool" {
				t.Errorf("words = %v, want [Stool]", result.Words)
			}
			if result.Sentence.Translation == "" {
				t.Error("sentence translation missing")
			}
		})
	}
}

func TestParseResultErrors(t *testing.T) {
	if _, err := ParseResult(""); !errors.Is(err, ErrNoData) {
		t.Errorf("empty response error = %v, want ErrNoData", err)
	}
	if _, err := ParseResult("```json\n```"); !errors.Is(err, ErrNoData) {
		t.Errorf("empty fenced response error = %v, want ErrNoData", err)
	}
	if _, err := ParseResult("the model rambled instead of emitting JSON"); !errors.Is(err, ErrParse) {
		t.Errorf("malformed response error = %v, want ErrParse", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(config.LevelIELTS)
	if !strings.Contains(prompt, "IELTS") {
		t.Error("prompt missing the learner level")
	}
	if !strings.Contains(prompt, "phoneticsymbols") {
		t.Error("prompt missing the response schema")
	}
}

func TestEncodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 12, 8))); err != nil {
		t.Fatalf("failed to build test image: %v", err)
	}

	encoded, err := EncodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if encoded.Ext != ".jpg" {
		t.Errorf("ext = %s, want .jpg", encoded.Ext)
	}
	if encoded.Width != 12 || encoded.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 12x8", encoded.Width, encoded.Height)
	}
	if len(encoded.Data) == 0 {
		t.Error("encoded data empty")
	}
}

func TestEncodeImageRejectsGarbage(t *testing.T) {
	if _, err := EncodeImage([]byte("not an image")); err == nil {
		t.Error("EncodeImage accepted undecodable input")
	}
}
