package couple

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	DefaultInviteCodeLength = 8

	// 31 characters: A-Z and 2-9 without 0/O or 1/I/L.
	inviteCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

var inviteCodeAlphabetSize = big.NewInt(int64(len(inviteCodeAlphabet)))

// GenerateInviteCode samples length characters independently from the invite alphabet.
// A non-positive length falls back to DefaultInviteCodeLength.
func GenerateInviteCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultInviteCodeLength
	}

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, inviteCodeAlphabetSize)
		if err != nil {
			return "", err
		}
		builder.WriteByte(inviteCodeAlphabet[n.Int64()])
	}

	return builder.String(), nil
}

func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
