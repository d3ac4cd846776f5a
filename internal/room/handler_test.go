package room

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoomStore struct {
	rooms        map[uuid.UUID]*Room
	participants map[uuid.UUID]map[uuid.UUID]bool // roomID -> userID set
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{
		rooms:        make(map[uuid.UUID]*Room),
		participants: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *fakeRoomStore) CreateRoom(_ context.Context, room *Room) error {
	code, err := NewInviteCode()
	if err != nil {
		return err
	}
	room.ID = uuid.New()
	room.InviteCode = code
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	s.participants[room.ID] = map[uuid.UUID]bool{room.CreatedBy: true}
	return nil
}

func (s *fakeRoomStore) GetRoomByID(_ context.Context, roomID uuid.UUID) (*Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

func (s *fakeRoomStore) GetRoomByInviteCode(_ context.Context, code string) (*Room, error) {
	for _, room := range s.rooms {
		if room.InviteCode == NormalizeInviteCode(code) {
			return room, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeRoomStore) GetRoomsOwnedBy(_ context.Context, userID uuid.UUID) ([]*RoomWithOwner, error) {
	var out []*RoomWithOwner
	for _, room := range s.rooms {
		if room.CreatedBy == userID {
			out = append(out, &RoomWithOwner{Room: *room})
		}
	}
	return out, nil
}

func (s *fakeRoomStore) UpdateVideoURL(_ context.Context, roomID uuid.UUID, videoURL string) (*Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	room.VideoURL = videoURL
	room.UpdatedAt = time.Now()
	return room, nil
}

func (s *fakeRoomStore) UpdatePlayback(_ context.Context, roomID uuid.UUID, isPlaying bool, position float64) (*Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	room.IsPlaying = isPlaying
	room.PlaybackPosition = position
	room.UpdatedAt = time.Now()
	return room, nil
}

func (s *fakeRoomStore) AddParticipant(_ context.Context, p *Participant) (bool, error) {
	members := s.participants[p.RoomID]
	if members[p.UserID] {
		return false, nil
	}
	members[p.UserID] = true
	p.ID = uuid.New()
	p.JoinedAt = time.Now()
	return true, nil
}

func (s *fakeRoomStore) GetParticipants(_ context.Context, roomID uuid.UUID) ([]*ParticipantProfile, error) {
	var out []*ParticipantProfile
	for userID := range s.participants[roomID] {
		out = append(out, &ParticipantProfile{
			Participant: Participant{RoomID: roomID, UserID: userID},
		})
	}
	return out, nil
}

func (s *fakeRoomStore) IsParticipant(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	return s.participants[roomID][userID], nil
}

type recordingNotifier struct {
	roomUpdates  []*Room
	rosterEvents []uuid.UUID
}

func (n *recordingNotifier) RoomUpdated(room *Room) {
	n.roomUpdates = append(n.roomUpdates, room)
}

func (n *recordingNotifier) ParticipantsChanged(roomID uuid.UUID) {
	n.rosterEvents = append(n.rosterEvents, roomID)
}

func newTestRoomHandler() (*Handler, *fakeRoomStore, *recordingNotifier) {
	store := newFakeRoomStore()
	notifier := &recordingNotifier{}
	h := NewHandler(store, notifier, "http://localhost:8080", logger.Discard().Logger, time.Second)
	return h, store, notifier
}

func doRequest(h *Handler, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api/rooms", h.RegisterRoutes)

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithIdentity(req.Context(), userID, "u@example.com", "u"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateRoom(t *testing.T) {
	h, store, _ := newTestRoomHandler()
	owner := uuid.New()

	rec := doRequest(h, http.MethodPost, "/api/rooms", owner, CreateRoomRequest{Name: "  Movie Night  "})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Movie Night", resp.Room.Name)
	assert.NotEmpty(t, resp.Room.InviteCode)
	assert.Contains(t, resp.InviteLink, resp.Room.ID.String())
	assert.Contains(t, resp.InviteLink, resp.Room.InviteCode)

	// Owner is on the roster from the start
	isMember, err := store.IsParticipant(context.Background(), resp.Room.ID, owner)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestHandleCreateRoomInvalidName(t *testing.T) {
	h, _, _ := newTestRoomHandler()

	rec := doRequest(h, http.MethodPost, "/api/rooms", uuid.New(), CreateRoomRequest{Name: "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleJoinRoom(t *testing.T) {
	h, store, notifier := newTestRoomHandler()
	owner := uuid.New()
	joiner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	rec := doRequest(h, http.MethodPost, "/api/rooms/join", joiner, JoinRoomRequest{InviteCode: room.InviteCode})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp JoinRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, room.ID, resp.RoomID)
	assert.False(t, resp.AlreadyMember)
	assert.Equal(t, []uuid.UUID{room.ID}, notifier.rosterEvents)
}

func TestHandleJoinRoomAlreadyMember(t *testing.T) {
	h, store, notifier := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	// Owner re-joining their own room is a successful no-op
	rec := doRequest(h, http.MethodPost, "/api/rooms/join", owner, JoinRoomRequest{InviteCode: room.InviteCode})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp JoinRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AlreadyMember)
	assert.Empty(t, notifier.rosterEvents)
}

func TestHandleJoinRoomInvalidCode(t *testing.T) {
	h, _, _ := newTestRoomHandler()

	rec := doRequest(h, http.MethodPost, "/api/rooms/join", uuid.New(), JoinRoomRequest{InviteCode: "WRONGCODE"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleJoinRoomNormalizesCode(t *testing.T) {
	h, store, _ := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	// Lowercase input with whitespace still resolves
	messy := "  " + strings.ToLower(room.InviteCode) + " "
	rec := doRequest(h, http.MethodPost, "/api/rooms/join", uuid.New(), JoinRoomRequest{InviteCode: messy})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleUpdateVideoURL(t *testing.T) {
	h, store, notifier := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	rec := doRequest(h, http.MethodPut, "/api/rooms/"+room.ID.String()+"/video", owner,
		UpdateVideoURLRequest{VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", room.VideoURL)

	// The full changed row is pushed to everyone in the room
	require.Len(t, notifier.roomUpdates, 1)
	assert.Equal(t, room.ID, notifier.roomUpdates[0].ID)
}

func TestHandleUpdateVideoURLNonMember(t *testing.T) {
	h, store, notifier := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	rec := doRequest(h, http.MethodPut, "/api/rooms/"+room.ID.String()+"/video", uuid.New(),
		UpdateVideoURLRequest{VideoURL: "https://youtu.be/dQw4w9WgXcQ"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, notifier.roomUpdates)
}

func TestHandleUpdatePlayback(t *testing.T) {
	h, store, notifier := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	rec := doRequest(h, http.MethodPut, "/api/rooms/"+room.ID.String()+"/playback", owner,
		UpdatePlaybackRequest{IsPlaying: true, PlaybackPosition: 42.5})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, room.IsPlaying)
	assert.Equal(t, 42.5, room.PlaybackPosition)
	require.Len(t, notifier.roomUpdates, 1)
}

func TestHandleUpdatePlaybackNegativePosition(t *testing.T) {
	h, store, _ := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))

	rec := doRequest(h, http.MethodPut, "/api/rooms/"+room.ID.String()+"/playback", owner,
		UpdatePlaybackRequest{IsPlaying: true, PlaybackPosition: -1})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetRoom(t *testing.T) {
	h, store, _ := newTestRoomHandler()
	owner := uuid.New()

	room := &Room{Name: "Movie Night", CreatedBy: owner}
	require.NoError(t, store.CreateRoom(context.Background(), room))
	room.VideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	rec := doRequest(h, http.MethodGet, "/api/rooms/"+room.ID.String(), owner, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, room.ID, resp.Room.ID)
	assert.Len(t, resp.Participants, 1)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", resp.EmbedURL)
}
