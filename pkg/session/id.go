package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// idBytes matches the 24 random bytes used by connect session ids, which
// encode to 32 URL-safe characters.
const idBytes = 24

// IDGenerator returns a new unguessable session id. Ids must not contain a
// dot, since the signed cookie is split at its last dot.
type IDGenerator func() (string, error)

// GenerateID returns 192 bits from crypto/rand encoded with the URL-safe
// base64 alphabet without padding.
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
