// Package gameid generates game identifiers: UUIDv7 values written as 26
// lowercase Crockford base32 characters, so ids sort by creation time.
package gameid

import (
	"encoding/base32"
	"fmt"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lowercased. Ascending, so encoded ids keep
// the byte order of the UUID.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh game id
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// only fails when the system random source does
		panic(fmt.Sprintf("gameid: %v", err))
	}
	return Encode(id)
}

// Encode writes a UUID in game id form
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Parse decodes a game id back into its UUID
func Parse(s string) (uuid.UUID, error) {
	if len(s) != 26 {
		return uuid.Nil, fmt.Errorf("game ID must be exactly 26 characters, got %d", len(s))
	}
	raw, err := encoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid game ID %q: %w", s, err)
	}
	return uuid.FromBytes(raw)
}

// Validate checks that s is a well-formed game id
func Validate(s string) error {
	_, err := Parse(s)
	return err
}
