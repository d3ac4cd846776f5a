package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinctAuthorIDs(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	messages := []*Message{
		{UserID: alice, Text: "hey"},
		{UserID: bob, Text: "hi"},
		{UserID: alice, Text: "ready?"},
		{UserID: alice, Text: "pressing play"},
	}

	ids := distinctAuthorIDs(messages)

	require.Len(t, ids, 2)
	assert.Equal(t, alice, ids[0])
	assert.Equal(t, bob, ids[1])
}

func TestDistinctAuthorIDsEmpty(t *testing.T) {
	assert.Empty(t, distinctAuthorIDs(nil))
}

func TestAttachAuthors(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	messages := []*Message{
		{ID: uuid.New(), UserID: alice, Text: "first"},
		{ID: uuid.New(), UserID: bob, Text: "second"},
		{ID: uuid.New(), UserID: alice, Text: "third"},
	}

	profiles := []*user.Profile{
		{ID: alice, Username: "alice"},
		{ID: bob, Username: "bob"},
	}

	result := attachAuthors(messages, profiles)

	require.Len(t, result, 3)
	assert.Equal(t, "first", result[0].Text)
	assert.Equal(t, "alice", result[0].Author.Username)
	assert.Equal(t, "bob", result[1].Author.Username)
	assert.Equal(t, "alice", result[2].Author.Username)
}

func TestAttachAuthorsMissingProfile(t *testing.T) {
	ghost := uuid.New()

	messages := []*Message{
		{ID: uuid.New(), UserID: ghost, Text: "boo"},
	}

	result := attachAuthors(messages, nil)

	require.Len(t, result, 1)
	assert.Equal(t, ghost, result[0].Author.ID)
	assert.Equal(t, "User", result[0].Author.Username)
}
