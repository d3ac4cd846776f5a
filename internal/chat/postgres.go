package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// CreateMessage appends a message to the room's chat log
func (s *PostgresStore) CreateMessage(ctx context.Context, message *Message) error {
	query := `
		INSERT INTO room_messages (id, room_id, user_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	message.ID = uuid.New()
	message.CreatedAt = time.Now()

	_, err := s.pool.Exec(ctx, query,
		message.ID,
		message.RoomID,
		message.UserID,
		message.Text,
		message.CreatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListMessages retrieves all messages in a room, oldest first
func (s *PostgresStore) ListMessages(ctx context.Context, roomID uuid.UUID) ([]*Message, error) {
	query := `
		SELECT id, room_id, user_id, message, created_at
		FROM room_messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room messages: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		msg := &Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.UserID,
			&msg.Text,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
