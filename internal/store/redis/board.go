package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/taskboard/internal/domain"
)

// BoardStore keeps the encoded board under a single key.
type BoardStore struct {
	client *redis.Client
	key    string
}

func NewBoardStore(client *redis.Client, board string) *BoardStore {
	return &BoardStore{client: client, key: BoardKey(board)}
}

func (s *BoardStore) Load(ctx context.Context) (*domain.Board, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis.BoardStore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis.BoardStore.Load: %w: %w", domain.ErrIO, err)
	}

	b, err := domain.UnmarshalBoard(data)
	if err != nil {
		return nil, fmt.Errorf("redis.BoardStore.Load: %w", err)
	}
	return b, nil
}

func (s *BoardStore) Save(ctx context.Context, b *domain.Board) error {
	data, err := domain.MarshalBoard(b)
	if err != nil {
		return fmt.Errorf("redis.BoardStore.Save: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis.BoardStore.Save: %w: %w", domain.ErrIO, err)
	}
	return nil
}

// Quarantine renames the stored value to <key>:unreadable-<unixnano> and
// returns the new key.
func (s *BoardStore) Quarantine(ctx context.Context) (string, error) {
	dst := fmt.Sprintf("%s:unreadable-%d", s.key, time.Now().UnixNano())
	if err := s.client.Rename(ctx, s.key, dst).Err(); err != nil {
		return "", fmt.Errorf("redis.BoardStore.Quarantine: %w: %w", domain.ErrIO, err)
	}
	return dst, nil
}

// BoardKey returns the key a board is stored under.
func BoardKey(board string) string {
	return "taskboard:board:" + board
}
