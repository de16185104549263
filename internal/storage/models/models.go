package models

import (
	"errors"
	"time"
)

// ErrBotNotFound is returned by store lookups when the bot ID does not
// resolve. Handlers map it to a 404.
var ErrBotNotFound = errors.New("bot not found")

type Bot struct {
	ID         string
	Name       string
	Purpose    string
	WebsiteURL string
	CreatedAt  time.Time
}

// KnowledgeRecord is a vetted question-answer pair used by the chat layer
// to ground replies. Records are insert-only from this service's point of
// view; a bot never holds two records with the same normalized question.
type KnowledgeRecord struct {
	ID         string
	BotID      string
	Question   string
	Answer     string
	Confidence float64
	Category   string
	SourceURL  string
	SourceType string
	Keywords   []string
	CreatedAt  time.Time
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// ConversationSession is written by the chat layer and only read here.
type ConversationSession struct {
	ID        string
	BotID     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}
