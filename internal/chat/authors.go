package chat

import (
	"github.com/google/uuid"
	"github.com/rx3lixir/partywatch/internal/user"
)

// distinctAuthorIDs collects the unique author ids from a message page so
// their profiles can be fetched in one batch call instead of one per message
func distinctAuthorIDs(messages []*Message) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(messages))
	ids := make([]uuid.UUID, 0, len(messages))

	for _, msg := range messages {
		if !seen[msg.UserID] {
			seen[msg.UserID] = true
			ids = append(ids, msg.UserID)
		}
	}

	return ids
}

// attachAuthors joins messages with their author profiles locally.
// A message whose author profile is missing still renders, with a
// placeholder identity.
func attachAuthors(messages []*Message, profiles []*user.Profile) []MessageWithAuthor {
	byID := make(map[uuid.UUID]*user.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	result := make([]MessageWithAuthor, len(messages))
	for i, msg := range messages {
		author := user.Profile{ID: msg.UserID, Username: "User"}
		if p, ok := byID[msg.UserID]; ok {
			author = *p
		}
		result[i] = MessageWithAuthor{
			Message: *msg,
			Author:  author,
		}
	}

	return result
}
