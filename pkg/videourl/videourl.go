// Package videourl holds pure helpers for the URLs a room passes around:
// rewriting share links into embeddable form and building invite links.
package videourl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Matches youtube.com watch/share/embed variants and youtu.be short links,
// capturing the 11-character video identifier
var youtubeRe = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ToEmbeddable rewrites a recognized video share link to its embeddable
// form. Unrecognized URLs pass through unchanged.
func ToEmbeddable(rawURL string) string {
	match := youtubeRe.FindStringSubmatch(rawURL)
	if len(match) == 2 {
		return "https://www.youtube.com/embed/" + match[1]
	}
	return rawURL
}

// BuildInviteLink produces the shareable room link:
// <origin>/room/<roomID>?invite=<inviteCode>
func BuildInviteLink(origin string, roomID uuid.UUID, inviteCode string) string {
	return fmt.Sprintf("%s/room/%s?invite=%s",
		strings.TrimRight(origin, "/"),
		roomID,
		url.QueryEscape(inviteCode),
	)
}

// ParseInviteLink recovers the room ID and invite code from a link built by
// BuildInviteLink. The pair must round-trip exactly.
func ParseInviteLink(link string) (uuid.UUID, string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid invite link: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] != "room" {
		return uuid.Nil, "", fmt.Errorf("invite link has no /room/<id> path: %s", u.Path)
	}

	roomID, err := uuid.Parse(parts[len(parts)-1])
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid room id in invite link: %w", err)
	}

	code := u.Query().Get("invite")
	if code == "" {
		return uuid.Nil, "", fmt.Errorf("invite link is missing the invite code")
	}

	return roomID, code, nil
}
