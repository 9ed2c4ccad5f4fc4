package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

// Common errors for relationship operations.
var (
	ErrCannotBlockSelf = errors.New("cannot block yourself")
	ErrUserNotFound    = errors.New("user not found")
)

const (
	// DefaultHistoryLimit is used when the caller does not ask for a size.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps a single history page.
	MaxHistoryLimit = 200
)

// Service covers the relationship operations served over HTTP.
// Friend requests themselves run over the live connection.
type Service struct {
	store store.Store
}

// New creates a new friends Service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// BlockUser blocks targetID for userID regardless of the current edge.
func (s *Service) BlockUser(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrCannotBlockSelf
	}

	if _, err := s.store.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.store.BlockUser(ctx, userID, targetID); err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

// History returns up to limit messages between userID and peerID, oldest first.
// Non-positive limits fall back to DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, userID, peerID int64, limit int) ([]*store.PrivateMessage, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	messages, err := s.store.ListPrivateMessages(ctx, userID, peerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
