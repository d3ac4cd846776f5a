package friend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/auth"
	"github.com/rx3lixir/partywatch/internal/user"
	"github.com/rx3lixir/partywatch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFriendStore struct {
	edges []*Edge
}

func (s *fakeFriendStore) GetBetween(_ context.Context, userID, otherID uuid.UUID) (*Edge, error) {
	for _, e := range s.edges {
		if (e.UserID == userID && e.FriendID == otherID) ||
			(e.UserID == otherID && e.FriendID == userID) {
			return e, nil
		}
	}
	return nil, nil
}

func (s *fakeFriendStore) AddMutual(_ context.Context, userID, friendID uuid.UUID) error {
	now := time.Now()
	s.edges = append(s.edges,
		&Edge{ID: uuid.New(), UserID: userID, FriendID: friendID, Status: StatusAccepted, CreatedAt: now},
		&Edge{ID: uuid.New(), UserID: friendID, FriendID: userID, Status: StatusAccepted, CreatedAt: now},
	)
	return nil
}

func (s *fakeFriendStore) ListFriends(_ context.Context, userID uuid.UUID) ([]*Friend, error) {
	var out []*Friend
	for _, e := range s.edges {
		if e.UserID == userID && e.Status == StatusAccepted {
			out = append(out, &Friend{Edge: *e, Profile: user.Profile{ID: e.FriendID}})
		}
	}
	return out, nil
}

type fakeUsers struct {
	known map[uuid.UUID]bool
}

func (u *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if !u.known[id] {
		return nil, user.ErrNotFound
	}
	return &user.User{ID: id}, nil
}

func addFriend(t *testing.T, h *Handler, callerID uuid.UUID, body AddFriendRequest) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/api/friends", h.RegisterRoutes)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/friends", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithIdentity(req.Context(), callerID, "u@example.com", "u"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleAddFriend(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	store := &fakeFriendStore{}
	h := NewHandler(store, &fakeUsers{known: map[uuid.UUID]bool{bob: true}}, logger.Discard().Logger, time.Second)

	rec := addFriend(t, h, alice, AddFriendRequest{UserID: bob})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AddFriendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusAccepted, resp.Status)
	assert.False(t, resp.AlreadyExists)

	require.Len(t, store.edges, 2)
	assert.Equal(t, StatusAccepted, store.edges[0].Status)
	assert.Equal(t, StatusAccepted, store.edges[1].Status)

	// both sides see the friendship
	mine, err := store.ListFriends(context.Background(), alice)
	require.NoError(t, err)
	theirs, err := store.ListFriends(context.Background(), bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, theirs, 1)
	assert.Equal(t, bob, mine[0].FriendID)
	assert.Equal(t, alice, theirs[0].FriendID)
}

func TestHandleAddFriendSelf(t *testing.T) {
	alice := uuid.New()

	store := &fakeFriendStore{}
	h := NewHandler(store, &fakeUsers{known: map[uuid.UUID]bool{alice: true}}, logger.Discard().Logger, time.Second)

	rec := addFriend(t, h, alice, AddFriendRequest{UserID: alice})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.edges)
}

func TestHandleAddFriendUnknownUser(t *testing.T) {
	alice := uuid.New()

	store := &fakeFriendStore{}
	h := NewHandler(store, &fakeUsers{known: map[uuid.UUID]bool{}}, logger.Discard().Logger, time.Second)

	rec := addFriend(t, h, alice, AddFriendRequest{UserID: uuid.New()})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAddFriendAlreadyFriends(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	store := &fakeFriendStore{}
	require.NoError(t, store.AddMutual(context.Background(), alice, bob))

	h := NewHandler(store, &fakeUsers{known: map[uuid.UUID]bool{alice: true, bob: true}}, logger.Discard().Logger, time.Second)

	// Adding again in either direction reports the existing friendship
	// as success, never as an error
	rec := addFriend(t, h, alice, AddFriendRequest{UserID: bob})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AddFriendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusAccepted, resp.Status)
	assert.True(t, resp.AlreadyExists)

	rec = addFriend(t, h, bob, AddFriendRequest{UserID: alice})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusAccepted, resp.Status)
	assert.True(t, resp.AlreadyExists)

	// No new rows either way
	assert.Len(t, store.edges, 2)
}

func TestHandleAddFriendPendingRequest(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	store := &fakeFriendStore{edges: []*Edge{
		{ID: uuid.New(), UserID: alice, FriendID: bob, Status: StatusPending, CreatedAt: time.Now()},
	}}

	h := NewHandler(store, &fakeUsers{known: map[uuid.UUID]bool{bob: true}}, logger.Discard().Logger, time.Second)

	rec := addFriend(t, h, alice, AddFriendRequest{UserID: bob})

	// The pending edge is reported as-is, not overwritten and not an error
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AddFriendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusPending, resp.Status)
	assert.True(t, resp.AlreadyExists)
	assert.Len(t, store.edges, 1)
}

func TestHandleListFriends(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	store := &fakeFriendStore{}
	require.NoError(t, store.AddMutual(context.Background(), alice, bob))
	require.NoError(t, store.AddMutual(context.Background(), alice, carol))

	h := NewHandler(store, &fakeUsers{}, logger.Discard().Logger, time.Second)

	r := chi.NewRouter()
	r.Route("/api/friends", h.RegisterRoutes)

	req := httptest.NewRequest(http.MethodGet, "/api/friends", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), alice, "u@example.com", "u"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListFriendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}
