package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/llm"
	"github.com/chatforge/backend/internal/metrics"
	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/pkg/logger"
)

// Completer is the slice of the LLM client the engine needs (one
// sentiment classification call per report, at most).
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// SessionStore reads the conversation history owned by the chat layer.
type SessionStore interface {
	GetBot(ctx context.Context, id string) (*models.Bot, error)
	RecentSessions(ctx context.Context, botID string, limit int) ([]models.ConversationSession, error)
}

// ReportCache is optional; a nil cache disables caching.
type ReportCache interface {
	GetReport(ctx context.Context, botID string, report *Report) (bool, error)
	SetReport(ctx context.Context, botID string, report *Report) error
}

type Config struct {
	SessionWindow       int
	SentimentSampleSize int
	SentimentTimeout    time.Duration
	WordcloudSize       int
}

func DefaultConfig() Config {
	return Config{
		SessionWindow:       100,
		SentimentSampleSize: 20,
		SentimentTimeout:    10 * time.Second,
		WordcloudSize:       50,
	}
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

type Heatmap struct {
	Hourly [24]int `json:"hourly"`
	Daily  [7]int  `json:"daily"`
}

// Report is the JSON document served to the dashboard. It is recomputed
// from the session window on demand; only the cache holds it, briefly.
type Report struct {
	Wordcloud      []WordCount `json:"wordcloud"`
	Sentiment      Sentiment   `json:"sentiment"`
	ConversionRate float64     `json:"conversionRate"`
	Conversions    int         `json:"conversions"`
	TotalSessions  int         `json:"totalSessions"`
	Heatmap        Heatmap     `json:"heatmap"`
}

// Engine computes aggregate conversation metrics over a bot's most
// recent sessions. The four aggregates are independent: a sentiment
// degrade never blocks the other three.
type Engine struct {
	store SessionStore
	llm   Completer
	cache ReportCache
	cfg   Config
}

func NewEngine(store SessionStore, completer Completer, cache ReportCache, cfg Config) *Engine {
	if cfg.SessionWindow <= 0 {
		cfg.SessionWindow = 100
	}
	if cfg.SentimentSampleSize <= 0 {
		cfg.SentimentSampleSize = 20
	}
	if cfg.SentimentTimeout <= 0 {
		cfg.SentimentTimeout = 10 * time.Second
	}
	if cfg.WordcloudSize <= 0 {
		cfg.WordcloudSize = 50
	}
	return &Engine{
		store: store,
		llm:   completer,
		cache: cache,
		cfg:   cfg,
	}
}

// Analyze builds the full report for botID. It fails only when the bot
// does not exist or the session window cannot be read; everything else
// degrades to zero-valued aggregates.
func (e *Engine) Analyze(ctx context.Context, botID string) (*Report, error) {
	if _, err := e.store.GetBot(ctx, botID); err != nil {
		return nil, err
	}

	if e.cache != nil {
		var cached Report
		hit, err := e.cache.GetReport(ctx, botID, &cached)
		if err != nil {
			logger.Warn("Report cache read failed", zap.String("bot_id", botID), zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("analytics").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("analytics").Inc()
	}

	start := time.Now()

	sessions, err := e.store.RecentSessions(ctx, botID, e.cfg.SessionWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load session window: %w", err)
	}

	report := &Report{
		Wordcloud:     buildWordcloud(sessions, e.cfg.WordcloudSize),
		Sentiment:     e.classifySentiment(ctx, sessions),
		TotalSessions: len(sessions),
		Heatmap:       buildHeatmap(sessions),
	}
	report.Conversions, report.ConversionRate = countConversions(sessions)

	if e.cache != nil {
		if err := e.cache.SetReport(ctx, botID, report); err != nil {
			logger.Warn("Report cache write failed", zap.String("bot_id", botID), zap.Error(err))
		}
	}

	metrics.AnalyticsDuration.Observe(time.Since(start).Seconds())

	logger.Info("Analytics report built",
		zap.String("bot_id", botID),
		zap.Int("sessions", report.TotalSessions),
		zap.Int("conversions", report.Conversions),
		zap.Duration("elapsed", time.Since(start)),
	)

	return report, nil
}

// buildHeatmap buckets each session's creation time into hour-of-day and
// day-of-week counts. Timestamps are used as stored; no timezone
// normalization happens here.
func buildHeatmap(sessions []models.ConversationSession) Heatmap {
	var h Heatmap
	for _, s := range sessions {
		h.Hourly[s.CreatedAt.Hour()]++
		h.Daily[int(s.CreatedAt.Weekday())]++
	}
	return h
}

// roundRate rounds a percentage to one decimal place.
func roundRate(rate float64) float64 {
	return math.Round(rate*10) / 10
}
