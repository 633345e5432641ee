package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
)

const matchKeyPrefix = "match:"

// MatchRepository keeps the live state of in-progress matches. Entries are
// removed when a match ends and expire on their own if the server dies.
type MatchRepository interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMatchRepository(client *redis.Client, ttl time.Duration) MatchRepository {
	return &dbMatch{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbMatch) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	if err = that.client.Set(ctx, matchKeyPrefix+match.ID, matchJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	var existingMatch entity.Match
	if err = json.Unmarshal([]byte(response), &existingMatch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &existingMatch, nil
}

func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, matchKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete match by id: %w", err)
	}

	return nil
}

// nopMatch is used when no registry is configured.
type nopMatch struct{}

func NewNopMatchRepository() MatchRepository {
	return nopMatch{}
}

func (nopMatch) CreateOrUpdate(context.Context, *entity.Match) error { return nil }

func (nopMatch) GetByID(context.Context, string) (*entity.Match, error) {
	return nil, apperror.ErrMatchNotFound
}

func (nopMatch) DeleteByID(context.Context, string) error { return nil }
