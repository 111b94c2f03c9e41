package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/roblox-ai-studio/backend/internal/storage/models"
	"github.com/roblox-ai-studio/backend/pkg/logger"
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
	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		error INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id, seq);

	CREATE TABLE IF NOT EXISTS site_settings (
		key TEXT PRIMARY KEY,
		value_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS category_stats (
		category TEXT PRIMARY KEY,
		total_queries INTEGER NOT NULL DEFAULT 0,
		total_latency_ms INTEGER NOT NULL DEFAULT 0,
		satisfaction REAL NOT NULL DEFAULT 0,
		trend TEXT NOT NULL DEFAULT '+0%'
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// LoadMessages returns a session transcript in insertion order. A missing
// session yields an empty slice, not an error.
func (c *Client) LoadMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	query := `
		SELECT id, role, content, error, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY seq ASC
	`

	rows, err := c.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		var isErr int
		var createdAt int64

		err := rows.Scan(&m.ID, &m.Role, &m.Content, &isErr, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		m.Error = isErr == 1
		m.Timestamp = time.Unix(createdAt, 0).UTC()
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// SaveMessages replaces the stored transcript with msgs in a single
// transaction, so saving a freshly loaded transcript is a no-op on the
// persisted state.
func (c *Client) SaveMessages(ctx context.Context, sessionID string, msgs []models.ChatMessage) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}

	insert := `
		INSERT INTO chat_messages (id, session_id, seq, role, content, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for i, m := range msgs {
		isErr := 0
		if m.Error {
			isErr = 1
		}

		_, err = tx.ExecContext(ctx, insert, m.ID, sessionID, i, m.Role, m.Content, isErr, m.Timestamp.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transcript: %w", err)
	}

	logger.Debug("Transcript saved",
		zap.String("session_id", sessionID),
		zap.Int("messages", len(msgs)),
	)

	return nil
}

func (c *Client) GetSettings(ctx context.Context) (models.Settings, error) {
	var valueJSON string

	err := c.db.QueryRowContext(ctx,
		`SELECT value_json FROM site_settings WHERE key = 'site'`,
	).Scan(&valueJSON)

	if err == sql.ErrNoRows {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal([]byte(valueJSON), &settings); err != nil {
		// Corrupted row falls back to defaults rather than breaking the admin page.
		logger.Warn("Stored settings are malformed, using defaults", zap.Error(err))
		return models.DefaultSettings(), nil
	}

	return settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, settings models.Settings) error {
	valueJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO site_settings (key, value_json, updated_at)
		VALUES ('site', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value_json = excluded.value_json,
			updated_at = excluded.updated_at
	`

	_, err = c.db.ExecContext(ctx, query, string(valueJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	logger.Info("Site settings updated")
	return nil
}

// RecordCategoryQuery bumps the per-category counters used by the admin
// analytics page.
func (c *Client) RecordCategoryQuery(ctx context.Context, category string, latency time.Duration) error {
	query := `
		INSERT INTO category_stats (category, total_queries, total_latency_ms)
		VALUES (?, 1, ?)
		ON CONFLICT(category) DO UPDATE SET
			total_queries = total_queries + 1,
			total_latency_ms = total_latency_ms + excluded.total_latency_ms
	`

	_, err := c.db.ExecContext(ctx, query, category, latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record category query: %w", err)
	}

	return nil
}

func (c *Client) UpdateCategorySatisfaction(ctx context.Context, category string, satisfaction float64) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE category_stats SET satisfaction = ? WHERE category = ?`,
		satisfaction, category,
	)
	if err != nil {
		return fmt.Errorf("failed to update satisfaction: %w", err)
	}
	return nil
}

func (c *Client) GetCategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	query := `
		SELECT category, total_queries, total_latency_ms, satisfaction, trend
		FROM category_stats
		ORDER BY total_queries DESC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	defer rows.Close()

	stats := []models.CategoryStat{}
	for rows.Next() {
		var s models.CategoryStat
		var totalLatencyMS int64

		err := rows.Scan(&s.Category, &s.TotalQueries, &totalLatencyMS, &s.Satisfaction, &s.Trend)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if s.TotalQueries > 0 {
			s.AvgResponseTime = float64(totalLatencyMS) / float64(s.TotalQueries) / 1000.0
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
