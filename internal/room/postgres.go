package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"

	// Attempts at generating a non-colliding invite code before giving up
	maxInviteCodeAttempts = 5
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

const roomColumns = `id, name, invite_code, created_by, video_url, is_playing, playback_position, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	room := &Room{}
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.InviteCode,
		&room.CreatedBy,
		&room.VideoURL,
		&room.IsPlaying,
		&room.PlaybackPosition,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}
	return room, nil
}

// CreateRoom creates a new room and adds its owner as the first participant.
// Both writes commit in a single transaction so a room never exists without
// its owner on the roster.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *Room) error {
	roomQuery := `
		INSERT INTO rooms (id, name, invite_code, created_by, video_url, is_playing, playback_position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	participantQuery := `
		INSERT INTO room_participants (id, room_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	room.ID = uuid.New()
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := NewInviteCode()
		if err != nil {
			return err
		}
		room.InviteCode = code

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		_, err = tx.Exec(ctx, roomQuery,
			room.ID,
			room.Name,
			room.InviteCode,
			room.CreatedBy,
			room.VideoURL,
			room.IsPlaying,
			room.PlaybackPosition,
			room.CreatedAt,
			room.UpdatedAt,
		)
		if err != nil {
			_ = tx.Rollback(ctx)

			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "rooms_invite_code_key" {
				continue
			}
			if ctx.Err() != nil {
				return fmt.Errorf("operation cancelled: %w", ctx.Err())
			}
			return fmt.Errorf("failed to create room: %w", err)
		}

		_, err = tx.Exec(ctx, participantQuery, uuid.New(), room.ID, room.CreatedBy, now)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to add owner as participant: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit room creation: %w", err)
		}

		return nil
	}

	return fmt.Errorf("failed to generate a unique invite code after %d attempts", maxInviteCodeAttempts)
}

// GetRoomByID retrieves a room by its ID
func (s *PostgresStore) GetRoomByID(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	return scanRoom(s.pool.QueryRow(ctx, query, roomID))
}

// GetRoomByInviteCode resolves an invite code to its room.
// Codes are stored normalized, callers pass through NormalizeInviteCode.
func (s *PostgresStore) GetRoomByInviteCode(ctx context.Context, code string) (*Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE invite_code = $1`
	return scanRoom(s.pool.QueryRow(ctx, query, NormalizeInviteCode(code)))
}

// GetRoomsOwnedBy gets rooms created by the user, newest first,
// each joined with the owner's profile
func (s *PostgresStore) GetRoomsOwnedBy(ctx context.Context, userID uuid.UUID) ([]*RoomWithOwner, error) {
	query := `
		SELECT r.id, r.name, r.invite_code, r.created_by, r.video_url, r.is_playing, r.playback_position, r.created_at, r.updated_at,
		       u.id, u.username, u.avatar_url
		FROM rooms r
		INNER JOIN users u ON u.id = r.created_by
		WHERE r.created_by = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*RoomWithOwner{}
	for rows.Next() {
		rwo := &RoomWithOwner{}
		err := rows.Scan(
			&rwo.ID,
			&rwo.Name,
			&rwo.InviteCode,
			&rwo.CreatedBy,
			&rwo.VideoURL,
			&rwo.IsPlaying,
			&rwo.PlaybackPosition,
			&rwo.CreatedAt,
			&rwo.UpdatedAt,
			&rwo.Owner.ID,
			&rwo.Owner.Username,
			&rwo.Owner.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, rwo)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}

	return rooms, nil
}

// UpdateVideoURL writes a new video URL and returns the updated row,
// which becomes the payload everyone else replaces their snapshot with
func (s *PostgresStore) UpdateVideoURL(ctx context.Context, roomID uuid.UUID, videoURL string) (*Room, error) {
	query := `
		UPDATE rooms
		SET video_url = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + roomColumns

	return scanRoom(s.pool.QueryRow(ctx, query, roomID, videoURL, time.Now()))
}

// UpdatePlayback writes the playback flags and returns the updated row
func (s *PostgresStore) UpdatePlayback(ctx context.Context, roomID uuid.UUID, isPlaying bool, position float64) (*Room, error) {
	query := `
		UPDATE rooms
		SET is_playing = $2, playback_position = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + roomColumns

	return scanRoom(s.pool.QueryRow(ctx, query, roomID, isPlaying, position, time.Now()))
}

// AddParticipant adds a user to a room. The unique constraint on
// (room_id, user_id) is the correctness mechanism for concurrent joins:
// ON CONFLICT DO NOTHING makes a duplicate join a no-op instead of an error.
func (s *PostgresStore) AddParticipant(ctx context.Context, participant *Participant) (bool, error) {
	query := `
		INSERT INTO room_participants (id, room_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`

	participant.ID = uuid.New()
	participant.JoinedAt = time.Now()

	result, err := s.pool.Exec(ctx, query,
		participant.ID,
		participant.RoomID,
		participant.UserID,
		participant.JoinedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return false, fmt.Errorf("failed to add participant: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetParticipants gets all participants in a room with their profiles
func (s *PostgresStore) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]*ParticipantProfile, error) {
	query := `
		SELECT p.id, p.room_id, p.user_id, p.joined_at, u.id, u.username, u.avatar_url
		FROM room_participants p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.joined_at ASC
	`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	participants := []*ParticipantProfile{}
	for rows.Next() {
		p := &ParticipantProfile{}
		err := rows.Scan(
			&p.Participant.ID,
			&p.RoomID,
			&p.UserID,
			&p.JoinedAt,
			&p.Profile.ID,
			&p.Profile.Username,
			&p.Profile.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

// IsParticipant checks if a user is a participant in a room
func (s *PostgresStore) IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM room_participants
			WHERE room_id = $1 AND user_id = $2
		)
	`

	var exists bool
	err := s.pool.QueryRow(ctx, query, roomID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user in room: %w", err)
	}

	return exists, nil
}
