package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/content"
	"github.com/chatforge/backend/internal/llm"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/pkg/logger"
)

// Completer is the slice of the LLM client the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// KnowledgeStore persists vetted QA pairs, skipping rows that collide
// with an existing (bot, normalized question) pair.
type KnowledgeStore interface {
	BulkInsertKnowledge(ctx context.Context, records []models.KnowledgeRecord) (int, error)
}

type Config struct {
	BatchSize           int
	BatchDelay          time.Duration
	MaxContentChars     int
	ConfidenceThreshold float64
	PreviewSize         int
}

func DefaultConfig() Config {
	return Config{
		BatchSize:           25,
		BatchDelay:          time.Second,
		MaxContentChars:     12000,
		ConfidenceThreshold: 0.3,
		PreviewSize:         5,
	}
}

// Synthesizer turns raw site content plus a question catalog into
// persisted knowledge records through batched completion calls.
type Synthesizer struct {
	store    KnowledgeStore
	llm      Completer
	catalogs CatalogSet
	cfg      Config
}

func New(store KnowledgeStore, completer Completer, catalogs CatalogSet, cfg Config) *Synthesizer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.3
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = 5
	}
	return &Synthesizer{
		store:    store,
		llm:      completer,
		catalogs: catalogs,
		cfg:      cfg,
	}
}

type Request struct {
	BotID      string
	Content    string
	SourceURL  string
	SourceType string
	Purpose    string
	// Questions overrides the purpose catalog when non-empty.
	Questions []string
}

type Result struct {
	Generated int
	Saved     int
	Preview   []QAPair
	// FailedBatches holds the zero-based indices of batches whose reply
	// could not be obtained or parsed. Their questions were dropped.
	FailedBatches []int
}

// BatchOutcome is the per-batch result: either the parsed pairs or the
// error that sank the batch, never both.
type BatchOutcome struct {
	Index int
	Pairs []QAPair
	Err   error
}

// Synthesize runs the full pipeline: truncate content, batch the
// questions, ask the completion service per batch, filter by confidence
// and persist the survivors in one bulk insert. A failed batch is logged
// and skipped; partial success is the normal case. Only an unusable
// request or an unreachable store produce an error.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.BotID) == "" {
		return nil, fmt.Errorf("botID is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}

	start := time.Now()

	questions := req.Questions
	if len(questions) == 0 {
		questions = s.catalogs.Questions(req.Purpose)
	}
	if len(questions) == 0 {
		return &Result{}, nil
	}

	text := content.Prepare(req.Content, s.cfg.MaxContentChars)

	logger.Info("Starting knowledge synthesis",
		zap.String("bot_id", req.BotID),
		zap.Int("questions", len(questions)),
		zap.Int("content_chars", len(text)),
	)

	result := &Result{}
	var kept []QAPair

	batches := partition(questions, s.cfg.BatchSize)
	for i, batch := range batches {
		outcome := s.runBatch(ctx, text, batch, i)
		if outcome.Err != nil {
			logger.Warn("Batch failed, skipping",
				zap.String("bot_id", req.BotID),
				zap.Int("batch", i),
				zap.Int("questions", len(batch)),
				zap.Error(outcome.Err),
			)
			metrics.SynthesisBatches.WithLabelValues("failed").Inc()
			result.FailedBatches = append(result.FailedBatches, i)
		} else {
			metrics.SynthesisBatches.WithLabelValues("ok").Inc()
			for _, p := range outcome.Pairs {
				if s.keep(p) {
					kept = append(kept, p)
				}
			}
		}

		// Fixed courtesy pause between batches; the completion service's
		// rate limit is the binding constraint, not CPU.
		if i < len(batches)-1 && s.cfg.BatchDelay > 0 {
			time.Sleep(s.cfg.BatchDelay)
		}
	}

	result.Generated = len(kept)

	records := make([]models.KnowledgeRecord, 0, len(kept))
	now := time.Now()
	for _, p := range kept {
		records = append(records, models.KnowledgeRecord{
			BotID:      req.BotID,
			Question:   p.Question,
			Answer:     p.Answer,
			Confidence: p.Confidence,
			Category:   p.Category,
			SourceURL:  req.SourceURL,
			SourceType: req.SourceType,
			Keywords:   p.Keywords,
			CreatedAt:  now,
		})
	}

	saved, err := s.store.BulkInsertKnowledge(ctx, records)
	if err != nil {
		metrics.SynthesisRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to persist knowledge records: %w", err)
	}
	result.Saved = saved

	preview := s.cfg.PreviewSize
	if preview > len(kept) {
		preview = len(kept)
	}
	result.Preview = kept[:preview]

	metrics.SynthesisRuns.WithLabelValues("ok").Inc()
	metrics.SynthesisDuration.Observe(time.Since(start).Seconds())
	metrics.KnowledgeGenerated.Add(float64(result.Generated))
	metrics.KnowledgeSaved.Add(float64(result.Saved))

	logger.Info("Knowledge synthesis finished",
		zap.String("bot_id", req.BotID),
		zap.Int("generated", result.Generated),
		zap.Int("saved", result.Saved),
		zap.Ints("failed_batches", result.FailedBatches),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

func (s *Synthesizer) runBatch(ctx context.Context, text string, questions []string, index int) BatchOutcome {
	var sb strings.Builder
	sb.WriteString("Content:\n\"\"\"\n")
	sb.WriteString(text)
	sb.WriteString("\n\"\"\"\n\nQuestions:\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}
	sb.WriteString(`
Answer every question using ONLY the content above. Reply with a JSON object:
{"pairs": [{"question": "...", "answer": "...", "confidence": 0.0, "category": "...", "keywords": ["..."]}]}
Rules:
- confidence is a number between 0 and 1 reflecting how well the content supports the answer.
- If the content does not address a question, set answer to "NO_ANSWER" and confidence to 0.
- Never invent facts that are not in the content.`)

	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: "You build question-answer knowledge bases for business chatbots. You answer strictly from the provided content and never speculate.",
		UserPrompt:   sb.String(),
		JSONResponse: true,
	})
	if err != nil {
		return BatchOutcome{Index: index, Err: fmt.Errorf("completion call failed: %w", err)}
	}

	pairs, err := ParseQAReply(resp.Content)
	if err != nil {
		return BatchOutcome{Index: index, Err: fmt.Errorf("malformed batch reply: %w", err)}
	}

	return BatchOutcome{Index: index, Pairs: pairs}
}

func (s *Synthesizer) keep(p QAPair) bool {
	return p.Answer != "" && p.Answer != NoAnswer && p.Confidence > s.cfg.ConfidenceThreshold
}

func partition(questions []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(questions); start += size {
		end := start + size
		if end > len(questions) {
			end = len(questions)
		}
		batches = append(batches, questions[start:end])
	}
	return batches
}
