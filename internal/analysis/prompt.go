package analysis

import (
	"fmt"

	"github.com/snapvocab/snapvocab/internal/config"
)

// BuildPrompt returns the fixed analysis instruction, parameterized by
// the learner's target English level.
func BuildPrompt(level config.EnglishLevel) string {
	return fmt.Sprintf(`I am an English learner at the %s level and I want to learn vocabulary from real-world scenes. Analyze the photo I provide and return the following:

1. Words
   - Extract the common English words visible in the scene that are useful at my level.
   - For each word provide:
     - the word itself
     - its American phonetic symbols
     - a concise Chinese explanation
     - the word's location in the image as x and y coordinates, normalized to the 0-1 range with four decimal places
   - The location should mark one concrete point on the object; word locations must not overlap each other.

2. Sentence
   - Describe the image content with one simple, accurate English sentence.
   - Provide an idiomatic Chinese translation.

Respond with ONLY a JSON object in exactly this format:

{
    "words": [
        {
            "word": "Stool",
            "phoneticsymbols": "/stuːl/",
            "explanation": "凳子",
            "location": "0.55, 0.65"
        }
    ],
    "sentence": {
        "text": "A green plastic stool stands on a wooden floor against a gray wall, near a light switch.",
        "translation": "一个绿色的塑料凳子放在木地板上，靠在灰色的墙上，靠近一个灯开关。"
    }
}`, level.Description())
}
