package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/socialchat-server/internal/store"
)

//go:embed schema.sql
var schema string

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
// Use ":memory:" for an ephemeral database.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, nil)
}

// NewWithSetup opens the database, applies the schema and then runs setup.
// Useful for tests that need raw fixture rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

const userColumns = `id, username, password_hash, avatar_url, show_online_status, last_seen, created_at`

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	var lastSeen sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.ShowOnlineStatus,
		&lastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	if lastSeen.Valid {
		user.LastSeen = &lastSeen.Time
	}
	return &user, nil
}

// GetVisibility reports whether the user shows their online status.
func (s *SQLiteStore) GetVisibility(ctx context.Context, userID int64) (bool, error) {
	var visible bool
	err := s.db.QueryRowContext(ctx, `SELECT show_online_status FROM users WHERE id = ?`, userID).Scan(&visible)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return false, fmt.Errorf("query visibility: %w", err)
	}
	return visible, nil
}

// SetVisibility persists the online status preference.
func (s *SQLiteStore) SetVisibility(ctx context.Context, userID int64, visible bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET show_online_status = ? WHERE id = ?`, visible, userID)
	if err != nil {
		return fmt.Errorf("update visibility: %w", err)
	}
	return expectRow(result, "user")
}

// SetLastSeen stores the last seen timestamp; nil marks the user online.
func (s *SQLiteStore) SetLastSeen(ctx context.Context, userID int64, at *time.Time) error {
	var value any
	if at != nil {
		value = at.UTC()
	}
	result, err := s.db.ExecContext(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, value, userID)
	if err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return expectRow(result, "user")
}

// ==== FriendStore implementation ====

// GetFriendship retrieves the edge between two users in either order.
func (s *SQLiteStore) GetFriendship(ctx context.Context, userID, otherID int64) (*store.Friendship, error) {
	one, two := store.OrderPair(userID, otherID)
	query := `
		SELECT user_one_id, user_two_id, status, action_user_id, chat_theme, updated_at
		FROM friendships
		WHERE user_one_id = ? AND user_two_id = ?
	`
	var f store.Friendship
	var status string
	err := s.db.QueryRowContext(ctx, query, one, two).Scan(
		&f.UserOneID,
		&f.UserTwoID,
		&status,
		&f.ActionUserID,
		&f.ChatTheme,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friendship: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friendship: %w", err)
	}
	f.Status = store.FriendStatus(status)
	return &f, nil
}

// ListAcceptedFriendIDs lists ids of users with an accepted edge to userID.
func (s *SQLiteStore) ListAcceptedFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT CASE WHEN user_one_id = ? THEN user_two_id ELSE user_one_id END
		FROM friendships
		WHERE (user_one_id = ? OR user_two_id = ?) AND status = 'accepted'
	`
	return s.queryIDs(ctx, query, userID, userID, userID)
}

// UpsertFriendRequest sets the edge to pending with senderID as action user.
func (s *SQLiteStore) UpsertFriendRequest(ctx context.Context, senderID, receiverID int64) (*store.Friendship, error) {
	one, two := store.OrderPair(senderID, receiverID)
	query := `
		INSERT INTO friendships (user_one_id, user_two_id, status, action_user_id)
		VALUES (?, ?, 'pending', ?)
		ON CONFLICT (user_one_id, user_two_id) DO UPDATE
		SET status = 'pending', action_user_id = excluded.action_user_id, updated_at = CURRENT_TIMESTAMP
		WHERE friendships.status != 'blocked'
	`
	result, err := s.db.ExecContext(ctx, query, one, two, senderID)
	if err != nil {
		return nil, fmt.Errorf("upsert friend request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, store.ErrBlockedEdge
	}
	return s.GetFriendship(ctx, one, two)
}

// RespondFriendRequest atomically resolves a pending request sent by senderID.
// Acceptance flips the edge to accepted; rejection deletes it.
func (s *SQLiteStore) RespondFriendRequest(ctx context.Context, responderID, senderID int64, accept bool) (bool, error) {
	one, two := store.OrderPair(responderID, senderID)

	var (
		result sql.Result
		err    error
	)
	if accept {
		result, err = s.db.ExecContext(ctx, `
			UPDATE friendships
			SET status = 'accepted', action_user_id = ?, updated_at = CURRENT_TIMESTAMP
			WHERE user_one_id = ? AND user_two_id = ? AND status = 'pending' AND action_user_id = ?
		`, responderID, one, two, senderID)
	} else {
		result, err = s.db.ExecContext(ctx, `
			DELETE FROM friendships
			WHERE user_one_id = ? AND user_two_id = ? AND status = 'pending' AND action_user_id = ?
		`, one, two, senderID)
	}
	if err != nil {
		return false, fmt.Errorf("respond friend request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// BlockUser marks the edge blocked with blockerID as action user.
func (s *SQLiteStore) BlockUser(ctx context.Context, blockerID, targetID int64) error {
	one, two := store.OrderPair(blockerID, targetID)
	query := `
		INSERT INTO friendships (user_one_id, user_two_id, status, action_user_id)
		VALUES (?, ?, 'blocked', ?)
		ON CONFLICT (user_one_id, user_two_id) DO UPDATE
		SET status = 'blocked', action_user_id = excluded.action_user_id, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, one, two, blockerID); err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

// ==== GroupStore implementation ====

// CreateGroup creates a group with the creator accepted and members pending.
func (s *SQLiteStore) CreateGroup(ctx context.Context, name string, creatorID int64, memberIDs []int64) (*store.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `INSERT INTO chat_groups (name, creator_id) VALUES (?, ?)`, name, creatorID)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	groupID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, status) VALUES (?, ?, 'accepted')`,
		groupID, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	for _, memberID := range memberIDs {
		if memberID == creatorID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, user_id, status) VALUES (?, ?, 'pending')`,
			groupID, memberID,
		); err != nil {
			return nil, fmt.Errorf("insert member %d: %w", memberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetGroup(ctx, groupID)
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID int64) (*store.Group, error) {
	query := `SELECT id, name, creator_id, chat_theme, created_at FROM chat_groups WHERE id = ?`
	var g store.Group
	err := s.db.QueryRowContext(ctx, query, groupID).Scan(&g.ID, &g.Name, &g.CreatorID, &g.ChatTheme, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query group: %w", err)
	}
	return &g, nil
}

// ListAcceptedGroupIDs lists groups where userID has accepted membership.
func (s *SQLiteStore) ListAcceptedGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT group_id FROM group_members WHERE user_id = ? AND status = 'accepted' ORDER BY group_id`
	return s.queryIDs(ctx, query, userID)
}

// RespondGroupInvitation accepts or drops a pending membership.
func (s *SQLiteStore) RespondGroupInvitation(ctx context.Context, groupID, userID int64, accept bool) (bool, error) {
	query := `DELETE FROM group_members WHERE group_id = ? AND user_id = ? AND status = 'pending'`
	if accept {
		query = `UPDATE group_members SET status = 'accepted' WHERE group_id = ? AND user_id = ? AND status = 'pending'`
	}
	result, err := s.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("respond invitation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// RenameGroup updates the group name.
func (s *SQLiteStore) RenameGroup(ctx context.Context, groupID int64, name string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE chat_groups SET name = ? WHERE id = ?`, name, groupID)
	if err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	return expectRow(result, "group")
}

// SetGroupTheme updates the group chat theme.
func (s *SQLiteStore) SetGroupTheme(ctx context.Context, groupID int64, theme string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE chat_groups SET chat_theme = ? WHERE id = ?`, theme, groupID)
	if err != nil {
		return fmt.Errorf("set group theme: %w", err)
	}
	return expectRow(result, "group")
}

// RemoveMember deletes a membership. It reports false if none existed.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteGroup removes the group with its memberships and messages.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_messages WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("delete group messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("delete group members: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM chat_groups WHERE id = ?`, groupID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if err := expectRow(result, "group"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// InsertPrivateMessage persists msg and fills its ID.
func (s *SQLiteStore) InsertPrivateMessage(ctx context.Context, msg *store.PrivateMessage) error {
	query := `
		INSERT INTO private_messages (sender_id, receiver_id, body, kind, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.SenderID, msg.ReceiverID, msg.Body, string(msg.Kind), msg.Read, msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert private message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// InsertGroupMessage persists msg and fills its ID.
func (s *SQLiteStore) InsertGroupMessage(ctx context.Context, msg *store.GroupMessage) error {
	query := `
		INSERT INTO group_messages (group_id, sender_id, body, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.GroupID, msg.SenderID, msg.Body, string(msg.Kind), msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert group message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// MarkRead flags unread messages from peerID to readerID as read.
func (s *SQLiteStore) MarkRead(ctx context.Context, peerID, readerID int64) (int64, error) {
	query := `
		UPDATE private_messages
		SET is_read = 1
		WHERE sender_id = ? AND receiver_id = ? AND is_read = 0
	`
	result, err := s.db.ExecContext(ctx, query, peerID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}

// ListPrivateMessages returns the latest limit messages between two users, oldest first.
func (s *SQLiteStore) ListPrivateMessages(ctx context.Context, userID, peerID int64, limit int) ([]*store.PrivateMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, sender_id, receiver_id, body, kind, is_read, created_at FROM (
			SELECT id, sender_id, receiver_id, body, kind, is_read, created_at
			FROM private_messages
			WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, peerID, peerID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query private messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.PrivateMessage
	for rows.Next() {
		var msg store.PrivateMessage
		var kind string
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &kind, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan private message: %w", err)
		}
		msg.Kind = store.MessageKind(kind)
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ==== helpers ====

func (s *SQLiteStore) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func expectRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}
