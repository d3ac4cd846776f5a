package chat

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
	"github.com/rx3lixir/partywatch/internal/user"
	"github.com/rx3lixir/partywatch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatStore struct {
	messages []*Message
}

func (s *fakeChatStore) CreateMessage(_ context.Context, message *Message) error {
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	s.messages = append(s.messages, message)
	return nil
}

func (s *fakeChatStore) ListMessages(_ context.Context, roomID uuid.UUID) ([]*Message, error) {
	var out []*Message
	for _, m := range s.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*user.Profile
}

func (p *fakeProfiles) GetProfilesByIDs(_ context.Context, ids []uuid.UUID) ([]*user.Profile, error) {
	var out []*user.Profile
	for _, id := range ids {
		if prof, ok := p.profiles[id]; ok {
			out = append(out, prof)
		}
	}
	return out, nil
}

type fakeMembership struct {
	members map[uuid.UUID]bool
}

func (m *fakeMembership) IsParticipant(_ context.Context, _ uuid.UUID, userID uuid.UUID) (bool, error) {
	return m.members[userID], nil
}

type fakeNotifier struct {
	posted []uuid.UUID
}

func (n *fakeNotifier) MessagePosted(roomID uuid.UUID) {
	n.posted = append(n.posted, roomID)
}

func newTestChatHandler(member uuid.UUID) (*Handler, *fakeChatStore, *fakeNotifier) {
	store := &fakeChatStore{}
	notifier := &fakeNotifier{}
	h := NewHandler(
		store,
		&fakeProfiles{profiles: map[uuid.UUID]*user.Profile{}},
		&fakeMembership{members: map[uuid.UUID]bool{member: true}},
		notifier,
		logger.Discard().Logger,
		time.Second,
	)
	return h, store, notifier
}

func postMessage(t *testing.T, h *Handler, roomID, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/api/rooms/{roomID}/messages", h.RegisterRoutes)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+roomID.String()+"/messages", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithIdentity(req.Context(), userID, "u@example.com", "u"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlePostMessage(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	h, store, notifier := newTestChatHandler(userID)

	rec := postMessage(t, h, roomID, userID, `{"text":"  hello room  "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.messages, 1)
	assert.Equal(t, "hello room", store.messages[0].Text)
	assert.Equal(t, []uuid.UUID{roomID}, notifier.posted)
}

func TestHandlePostMessageEmpty(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	h, store, notifier := newTestChatHandler(userID)

	rec := postMessage(t, h, roomID, userID, `{"text":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.messages)
	assert.Empty(t, notifier.posted)
}

func TestHandlePostMessageTooLong(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	h, _, _ := newTestChatHandler(userID)

	long := make([]byte, maxMessageLen+1)
	for i := range long {
		long[i] = 'a'
	}
	body, err := json.Marshal(PostMessageRequest{Text: string(long)})
	require.NoError(t, err)

	rec := postMessage(t, h, roomID, userID, string(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePostMessageCountsCharactersNotBytes(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	h, store, _ := newTestChatHandler(userID)

	// 500 cyrillic characters are 1000 bytes but still a valid message
	text := strings.Repeat("ж", maxMessageLen)
	body, err := json.Marshal(PostMessageRequest{Text: text})
	require.NoError(t, err)

	rec := postMessage(t, h, roomID, userID, string(body))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.messages, 1)
	assert.Equal(t, text, store.messages[0].Text)

	body, err = json.Marshal(PostMessageRequest{Text: strings.Repeat("ж", maxMessageLen+1)})
	require.NoError(t, err)

	rec = postMessage(t, h, roomID, userID, string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePostMessageNonMember(t *testing.T) {
	roomID := uuid.New()
	member := uuid.New()
	stranger := uuid.New()
	h, store, _ := newTestChatHandler(member)

	rec := postMessage(t, h, roomID, stranger, `{"text":"let me in"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.messages)
}

func TestHandleListMessagesJoinsAuthors(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()

	store := &fakeChatStore{}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*user.Profile{
		userID: {ID: userID, Username: "alice"},
	}}
	h := NewHandler(
		store,
		profiles,
		&fakeMembership{members: map[uuid.UUID]bool{userID: true}},
		&fakeNotifier{},
		logger.Discard().Logger,
		time.Second,
	)

	require.NoError(t, store.CreateMessage(context.Background(), &Message{
		RoomID: roomID,
		UserID: userID,
		Text:   "hello",
	}))

	r := chi.NewRouter()
	r.Route("/api/rooms/{roomID}/messages", h.RegisterRoutes)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+roomID.String()+"/messages", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), userID, "u@example.com", "u"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "hello", resp.Messages[0].Text)
	assert.Equal(t, "alice", resp.Messages[0].Author.Username)
}
