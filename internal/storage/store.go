// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chats and their messages in a local SQLite
// database. It backs the reference server; the terminal client itself keeps
// no local state.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/surya-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrChatNotFound = errors.New("chat not found")
)

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed chat store. Safe for concurrent use; SQLite's
// single-writer model is enforced through the connection pool settings.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed metadata: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// CreateChat inserts a new chat.
func (s *Store) CreateChat(ctx context.Context, chat *model.Chat) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		chat.ID, chat.Title, formatTime(chat.CreatedAt), formatTime(chat.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// ListChats returns chat summaries, most recently updated first.
func (s *Store) ListChats(ctx context.Context) ([]model.ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.id)
		FROM chats c
		LEFT JOIN messages m ON m.chat_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.ChatSummary, 0)
	for rows.Next() {
		var sum model.ChatSummary
		var created, updated string
		if err := rows.Scan(&sum.ID, &sum.Title, &created, &updated, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		sum.CreatedAt = parseTime(created)
		sum.UpdatedAt = parseTime(updated)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// GetChat returns the chat with its full message sequence.
func (s *Store) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	chat := &model.Chat{ID: id}

	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, created_at, updated_at FROM chats WHERE id = ?`, id).
		Scan(&chat.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}
	chat.CreatedAt = parseTime(created)
	chat.UpdatedAt = parseTime(updated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp, is_code, file_name, file_type, file_size, file_content
		FROM messages WHERE chat_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		chat.Messages = append(chat.Messages, msg)
	}
	return chat, rows.Err()
}

// DeleteChat removes a chat and, via cascade, its messages. Returns
// ErrChatNotFound if no row was deleted.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AppendMessages appends messages to a chat in order, updates the chat's
// updated_at, and optionally rewrites the title. All in one transaction.
func (s *Store) AppendMessages(ctx context.Context, chatID string, title string, msgs ...*model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE chat_id = ?`, chatID).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to read message sequence: %w", err)
	}

	for _, msg := range msgs {
		seq++
		var fileName, fileType, fileContent *string
		var fileSize *int64
		if f := msg.AttachedFile; f != nil {
			fileName, fileType, fileContent = &f.Filename, &f.Type, &f.Content
			fileSize = &f.Size
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, seq, role, content, timestamp, is_code,
			                      file_name, file_type, file_size, file_content)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, chatID, seq, string(msg.Role), msg.Content, formatTime(msg.Timestamp),
			boolToInt(msg.IsCode), fileName, fileType, fileSize, fileContent)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	now := formatTime(time.Now().UTC())
	if title != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`, title, now, chatID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE chats SET updated_at = ? WHERE id = ?`, now, chatID)
	}
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}

	return tx.Commit()
}

// MessageCount returns the number of messages stored for a chat.
func (s *Store) MessageCount(ctx context.Context, chatID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID).Scan(&n)
	return n, err
}

// =============================================================================
// HELPERS
// =============================================================================

func scanMessage(rows *sql.Rows) (*model.Message, error) {
	var msg model.Message
	var role, timestamp string
	var isCode int
	var fileName, fileType, fileContent sql.NullString
	var fileSize sql.NullInt64

	err := rows.Scan(&msg.ID, &role, &msg.Content, &timestamp, &isCode,
		&fileName, &fileType, &fileSize, &fileContent)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message row: %w", err)
	}

	msg.Role = model.Role(role)
	msg.Timestamp = parseTime(timestamp)
	msg.IsCode = isCode != 0
	if fileName.Valid {
		msg.AttachedFile = &model.FileRef{
			Filename: fileName.String,
			Type:     fileType.String,
			Size:     fileSize.Int64,
			Content:  fileContent.String,
		}
	}
	return &msg, nil
}

// timeLayout keeps a fixed-width fraction. RFC3339Nano strips trailing
// zeros, which breaks the lexicographic ORDER BY on updated_at ('Z' sorts
// after a digit within the same second).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
