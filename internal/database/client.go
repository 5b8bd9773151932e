package database

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"printshop-assistant/internal/session"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client is the durable tier behind the session cache: three JSONB
// collections keyed by session id (active sessions, completed designs,
// abandoned leads).
type Client struct {
	db *sql.DB
}

func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) LoadSession(ctx context.Context, sessionID string) (map[string]any, []session.Message, time.Time, error) {
	var orderJSON, messagesJSON []byte
	var lastActive time.Time
	err := c.db.QueryRowContext(ctx, `
		SELECT order_data, messages, last_active
		FROM active_sessions
		WHERE session_id = $1
	`, sessionID).Scan(&orderJSON, &messagesJSON, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, time.Time{}, nil
	}
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("failed to load session: %w", err)
	}

	var orderDoc map[string]any
	if err := json.Unmarshal(orderJSON, &orderDoc); err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("failed to decode order document: %w", err)
	}
	var messages []session.Message
	if len(messagesJSON) > 0 {
		if err := json.Unmarshal(messagesJSON, &messages); err != nil {
			log.Printf("session %s: unreadable message history, dropping it: %v", sessionID, err)
			messages = nil
		}
	}
	return orderDoc, messages, lastActive, nil
}

func (c *Client) SaveSession(ctx context.Context, sessionID string, orderDoc map[string]any, messages []session.Message, lastActive time.Time) error {
	orderJSON, err := json.Marshal(orderDoc)
	if err != nil {
		return fmt.Errorf("failed to encode order document: %w", err)
	}
	if messages == nil {
		messages = []session.Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode message history: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO active_sessions (session_id, order_data, messages, last_active, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET order_data = $2, messages = $3, last_active = $4, updated_at = NOW()
	`, sessionID, orderJSON, messagesJSON, lastActive)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM active_sessions
		WHERE session_id = $1
	`, sessionID)
	return err
}

// SaveCompletedOrder upserts the order into the completed designs
// collection. Repeated calls for the same session are idempotent.
func (c *Client) SaveCompletedOrder(ctx context.Context, sessionID string, orderDoc map[string]any) error {
	orderJSON, err := json.Marshal(orderDoc)
	if err != nil {
		return fmt.Errorf("failed to encode order document: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO completed_designs (session_id, order_data, completed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET order_data = $2, completed_at = NOW()
	`, sessionID, orderJSON)
	if err != nil {
		return fmt.Errorf("failed to save completed order: %w", err)
	}
	return nil
}

// SaveLead records an abandoned-but-complete order before its session
// is deleted.
func (c *Client) SaveLead(ctx context.Context, sessionID string, orderDoc map[string]any) error {
	orderJSON, err := json.Marshal(orderDoc)
	if err != nil {
		return fmt.Errorf("failed to encode order document: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO leads (id, session_id, order_data, captured_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET order_data = $3, captured_at = NOW()
	`, uuid.New(), sessionID, orderJSON)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

// Migrate applies the embedded migrations that have not run yet, each
// in its own transaction.
func (c *Client) Migrate() error {
	if err := c.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		applied, err := c.isMigrationApplied(name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			continue
		}

		migrationSQL, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		log.Printf("Applying migration: %s", name)
		tx, err := c.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if _, err := tx.Exec(string(migrationSQL)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (name, applied_at) VALUES ($1, NOW())",
			name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
	}
	return nil
}

func (c *Client) createMigrationsTable() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	return err
}

func (c *Client) isMigrationApplied(name string) (bool, error) {
	var count int
	err := c.db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE name = $1",
		name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
