package friend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

func (s *PostgresStore) GetBetween(ctx context.Context, userID, otherID uuid.UUID) (*Edge, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at
		FROM friends
		WHERE (user_id = $1 AND friend_id = $2)
		   OR (user_id = $2 AND friend_id = $1)
		LIMIT 1
	`

	edge := &Edge{}
	err := s.pool.QueryRow(ctx, query, userID, otherID).Scan(
		&edge.ID,
		&edge.UserID,
		&edge.FriendID,
		&edge.Status,
		&edge.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}

	return edge, nil
}

func (s *PostgresStore) AddMutual(ctx context.Context, userID, friendID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO friends (id, user_id, friend_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	now := time.Now()

	if _, err := tx.Exec(ctx, query, uuid.New(), userID, friendID, StatusAccepted, now); err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	if _, err := tx.Exec(ctx, query, uuid.New(), friendID, userID, StatusAccepted, now); err != nil {
		return fmt.Errorf("failed to create reverse friendship: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit friendship: %w", err)
	}

	return nil
}

func (s *PostgresStore) ListFriends(ctx context.Context, userID uuid.UUID) ([]*Friend, error) {
	query := `
		SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at,
		       u.id, u.username, u.avatar_url
		FROM friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1 AND f.status = $2
		ORDER BY u.username ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*Friend
	for rows.Next() {
		f := &Friend{}
		err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.FriendID,
			&f.Status,
			&f.CreatedAt,
			&f.Profile.ID,
			&f.Profile.Username,
			&f.Profile.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return friends, nil
}
