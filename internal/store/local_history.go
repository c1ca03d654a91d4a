package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// SaveHistory replaces the stored conversation of userID with messages.
// Delete and reinsert run in one transaction.
func (s *LocalStore) SaveHistory(ctx context.Context, userID string, messages []types.ChatMessage) error {
	timer := logging.StartTimer(logging.CategoryStore, "SaveHistory")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM history WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO history (id, user_id, message_json, timestamp) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for i := range messages {
		msg := messages[i]
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, msg.ID, userID, string(payload), msg.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("insert message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	logging.StoreDebug("Saved %d history messages for %s", len(messages), userID)
	return nil
}

// LoadHistory returns the stored conversation of userID, oldest first.
func (s *LocalStore) LoadHistory(ctx context.Context, userID string) ([]types.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT message_json FROM history WHERE user_id = ? ORDER BY timestamp ASC, rowid ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var msg types.ChatMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			logging.StoreDebug("Skipping undecodable history row for %s: %v", userID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
