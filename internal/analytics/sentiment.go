package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/llm"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/pkg/logger"
)

// classifySentiment samples the first user messages of the window (a
// deliberately different slice than the word cloud, which reads them
// all) and asks the completion service for a three-bucket histogram.
// Sentiment is a nice-to-have: any failure degrades silently to zeros
// and never propagates.
func (e *Engine) classifySentiment(ctx context.Context, sessions []models.ConversationSession) Sentiment {
	sample := sampleUserMessages(sessions, e.cfg.SentimentSampleSize)
	if len(sample) == 0 {
		return Sentiment{}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Classify the sentiment of these %d customer messages.\n\nMessages:\n", len(sample))
	for i, msg := range sample {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, msg)
	}
	fmt.Fprintf(&sb, `
Reply with a JSON object {"positive": n, "neutral": n, "negative": n}
where each message is counted exactly once, so the three numbers sum to %d.`, len(sample))

	resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: "You classify customer support messages by sentiment. Messages may be in Spanish or English.",
		UserPrompt:   sb.String(),
		MaxTokens:    100,
		JSONResponse: true,
		Timeout:      e.cfg.SentimentTimeout,
	})
	if err != nil {
		logger.Warn("Sentiment classification failed, degrading to zeros", zap.Error(err))
		metrics.SentimentDegrades.Inc()
		return Sentiment{}
	}

	sentiment, err := parseSentimentReply(resp.Content, len(sample))
	if err != nil {
		logger.Warn("Sentiment reply unusable, degrading to zeros", zap.Error(err))
		metrics.SentimentDegrades.Inc()
		return Sentiment{}
	}

	return sentiment
}

// parseSentimentReply is the parse boundary for the sentiment call. The
// counts must cover the sample exactly; a short total is folded into
// neutral, anything irreparable is an error.
func parseSentimentReply(text string, sampleSize int) (Sentiment, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return Sentiment{}, err
	}

	var out struct {
		Positive *int `json:"positive"`
		Neutral  *int `json:"neutral"`
		Negative *int `json:"negative"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Sentiment{}, fmt.Errorf("failed to decode sentiment object: %w", err)
	}
	if out.Positive == nil || out.Neutral == nil || out.Negative == nil {
		return Sentiment{}, fmt.Errorf("sentiment reply is missing a bucket")
	}

	s := Sentiment{Positive: *out.Positive, Neutral: *out.Neutral, Negative: *out.Negative}
	if s.Positive < 0 || s.Neutral < 0 || s.Negative < 0 {
		return Sentiment{}, fmt.Errorf("sentiment reply has negative counts")
	}

	s.Neutral += sampleSize - (s.Positive + s.Neutral + s.Negative)
	if s.Neutral < 0 {
		return Sentiment{}, fmt.Errorf("sentiment counts exceed sample size %d", sampleSize)
	}

	return s, nil
}

// sampleUserMessages collects up to limit user messages walking the
// window in order (sessions newest first, messages chronological).
func sampleUserMessages(sessions []models.ConversationSession, limit int) []string {
	var sample []string
	for _, s := range sessions {
		for _, m := range s.Messages {
			if m.Role != models.RoleUser {
				continue
			}
			sample = append(sample, m.Content)
			if len(sample) == limit {
				return sample
			}
		}
	}
	return sample
}
