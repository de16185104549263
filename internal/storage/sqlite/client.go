package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/storage/models"
	"github.com/chatforge/backend/pkg/logger"
	"github.com/chatforge/backend/pkg/textutil"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT 'customer',
		website_url TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS knowledge_records (
		id TEXT PRIMARY KEY,
		bot_id TEXT NOT NULL,
		question TEXT NOT NULL,
		question_key TEXT NOT NULL,
		answer TEXT NOT NULL,
		confidence REAL NOT NULL,
		category TEXT,
		source_url TEXT,
		source_type TEXT,
		keywords TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (bot_id) REFERENCES bots(id) ON DELETE CASCADE,
		UNIQUE (bot_id, question_key)
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_bot ON knowledge_records(bot_id);

	CREATE TABLE IF NOT EXISTS conversation_sessions (
		id TEXT PRIMARY KEY,
		bot_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (bot_id) REFERENCES bots(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_bot ON conversation_sessions(bot_id, created_at);

	CREATE TABLE IF NOT EXISTS conversation_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES conversation_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON conversation_messages(session_id, timestamp);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertBot(ctx context.Context, bot *models.Bot) error {
	query := `INSERT INTO bots (id, name, purpose, website_url, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query,
		bot.ID,
		bot.Name,
		bot.Purpose,
		bot.WebsiteURL,
		bot.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_id", bot.ID), zap.String("purpose", bot.Purpose))
	return nil
}

func (c *Client) GetBot(ctx context.Context, id string) (*models.Bot, error) {
	query := `SELECT id, name, purpose, website_url, created_at FROM bots WHERE id = ?`

	var bot models.Bot
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&bot.ID,
		&bot.Name,
		&bot.Purpose,
		&bot.WebsiteURL,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrBotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}

	bot.CreatedAt = time.Unix(createdAt, 0)
	return &bot, nil
}

// BulkInsertKnowledge inserts records in one transaction, silently skipping
// rows that collide with an existing (bot_id, question_key) pair. Returns
// the count actually inserted, which may be less than len(records).
func (c *Client) BulkInsertKnowledge(ctx context.Context, records []models.KnowledgeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO knowledge_records
			(id, bot_id, question, question_key, answer, confidence, category, source_url, source_type, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		keywordsJSON, _ := json.Marshal(r.Keywords)

		res, err := stmt.ExecContext(ctx,
			id,
			r.BotID,
			r.Question,
			textutil.NormalizeQuestion(r.Question),
			r.Answer,
			r.Confidence,
			r.Category,
			r.SourceURL,
			r.SourceType,
			string(keywordsJSON),
			r.CreatedAt.Unix(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert knowledge record: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit knowledge insert: %w", err)
	}

	logger.Info("Knowledge records inserted",
		zap.Int("submitted", len(records)),
		zap.Int("inserted", inserted),
	)

	return inserted, nil
}

func (c *Client) CountKnowledge(ctx context.Context, botID string) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM knowledge_records WHERE bot_id = ?`, botID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge records: %w", err)
	}
	return count, nil
}

func (c *Client) InsertSession(ctx context.Context, session *models.ConversationSession) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := session.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversation_sessions (id, bot_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, session.BotID, session.CreatedAt.Unix(), session.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, m := range session.Messages {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_messages (session_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
			id, m.Role, m.Content, m.Timestamp.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

// RecentSessions returns the bot's most recent sessions, newest first,
// each with its messages in chronological order.
func (c *Client) RecentSessions(ctx context.Context, botID string, limit int) ([]models.ConversationSession, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at
		FROM conversation_sessions
		WHERE bot_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ConversationSession
	for rows.Next() {
		var s models.ConversationSession
		var createdAt, updatedAt int64

		if err := rows.Scan(&s.ID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.BotID = botID
		s.CreatedAt = time.Unix(createdAt, 0)
		s.UpdatedAt = time.Unix(updatedAt, 0)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	for i := range sessions {
		messages, err := c.sessionMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}

	return sessions, nil
}

func (c *Client) sessionMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT role, content, timestamp
		FROM conversation_messages
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var ts int64

		if err := rows.Scan(&m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Timestamp = time.Unix(ts, 0)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}
