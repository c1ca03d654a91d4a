package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// hashPIN derives the stored form of a PIN. Salting with the username keeps
// equal PINs from sharing a row value.
func hashPIN(username, pin string) string {
	sum := sha256.Sum256([]byte(username + ":" + pin))
	return hex.EncodeToString(sum[:])
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CreateUser registers a farmer. Usernames are case-insensitive.
func (s *LocalStore) CreateUser(ctx context.Context, username, pin, name string) (*types.User, error) {
	username = normalizeUsername(username)
	if username == "" || pin == "" {
		return nil, fmt.Errorf("username and PIN are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := &types.User{
		ID:         uuid.NewString(),
		Username:   username,
		Name:       strings.TrimSpace(name),
		LastActive: time.Now().UTC(),
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return nil, ErrUserExists
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, pin, name, last_active) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Username, hashPIN(username, pin), user.Name, user.LastActive.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	logging.StoreDebug("Created user %s (%s)", user.Username, user.ID)
	return user, nil
}

// GetUser looks a user up by username.
func (s *LocalStore) GetUser(ctx context.Context, username string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, _, err := s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, name, last_active, pin FROM users WHERE username = ?", normalizeUsername(username)))
	return user, err
}

// Authenticate returns the user when username and PIN match.
func (s *LocalStore) Authenticate(ctx context.Context, username, pin string) (*types.User, error) {
	username = normalizeUsername(username)

	s.mu.RLock()
	user, stored, err := s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, name, last_active, pin FROM users WHERE username = ?", username))
	s.mu.RUnlock()
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if stored != hashPIN(username, pin) {
		logging.StoreDebug("PIN mismatch for %s", username)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateLastActive stamps the user as active now.
func (s *LocalStore) UpdateLastActive(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_active = ? WHERE id = ?", time.Now().UTC().UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("update last_active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LastActiveUser returns the most recently active user, used to resume a session.
func (s *LocalStore) LastActiveUser(ctx context.Context) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, _, err := s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, name, last_active, pin FROM users ORDER BY last_active DESC LIMIT 1"))
	return user, err
}

// ListUsers returns all users, most recently active first.
func (s *LocalStore) ListUsers(ctx context.Context) ([]types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, username, name, last_active FROM users ORDER BY last_active DESC, username ASC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		var lastActive int64
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &lastActive); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.LastActive = time.UnixMilli(lastActive).UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *LocalStore) scanUser(row *sql.Row) (*types.User, string, error) {
	var u types.User
	var lastActive int64
	var pin string
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &lastActive, &pin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("scan user: %w", err)
	}
	u.LastActive = time.UnixMilli(lastActive).UTC()
	return &u, pin, nil
}
