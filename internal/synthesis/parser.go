package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/chatforge/backend/internal/llm"
)

// NoAnswer is the sentinel the completion service must emit when the
// supplied content does not address a question.
const NoAnswer = "NO_ANSWER"

// QAPair is a candidate knowledge entry parsed from one batch reply.
// Only pairs passing the confidence filter ever reach the store.
type QAPair struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords"`
}

// pairsKeys are the wrapper keys the service has been observed to use
// when it returns an object instead of a bare array.
var pairsKeys = []string{"pairs", "qa_pairs", "items", "questions", "answers", "results"}

// ParseQAReply is the single boundary between raw completion text and
// the rest of the pipeline. It accepts either a bare JSON array of QA
// objects or an object wrapping that array under a known key.
func ParseQAReply(text string) ([]QAPair, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var pairs []QAPair
	if err := json.Unmarshal([]byte(raw), &pairs); err == nil {
		return pairs, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, fmt.Errorf("reply is neither a QA array nor an object: %w", err)
	}

	for _, key := range pairsKeys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &pairs); err != nil {
			return nil, fmt.Errorf("failed to decode %q array: %w", key, err)
		}
		return pairs, nil
	}

	return nil, fmt.Errorf("no QA array found in reply object")
}
