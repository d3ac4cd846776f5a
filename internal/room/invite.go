package room

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	inviteCodeLen = 8

	// No 0/O, 1/I/L - codes get read out loud and typed by hand
	inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// NewInviteCode generates a random invite code. Uniqueness is enforced by
// the store; collisions there trigger a regenerate.
func NewInviteCode() (string, error) {
	code := make([]byte, 0, inviteCodeLen)
	buf := make([]byte, inviteCodeLen*2)

	for len(code) < inviteCodeLen {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}

		for _, b := range buf {
			letter, ok := letterFor(b)
			if !ok {
				continue
			}
			code = append(code, letter)
			if len(code) == inviteCodeLen {
				break
			}
		}
	}

	return string(code), nil
}

// letterFor maps a random byte onto the alphabet by rejection sampling.
// 256 is not a multiple of the alphabet size, so a plain modulo would
// skew codes toward the first few characters; bytes in the uneven tail
// are discarded instead.
func letterFor(b byte) (byte, bool) {
	limit := 256 - (256 % len(inviteAlphabet))
	if int(b) >= limit {
		return 0, false
	}
	return inviteAlphabet[int(b)%len(inviteAlphabet)], true
}

// NormalizeInviteCode maps user input to the stored form.
// Codes are matched case-insensitively.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
