package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// signedPrefix marks a value produced by Sign. The same marker is used by the
// connect/express cookie-signature scheme, so cookies are readable by both.
const signedPrefix = "s:"

// Sign returns "s:" + value + "." + signature, where the signature is the
// HMAC-SHA256 of value keyed by secret, base64 encoded with the standard
// alphabet and without trailing padding.
func Sign(value, secret string) string {
	return signedPrefix + value + "." + signature(value, secret)
}

// Unsign verifies a value produced by Sign against each secret in order and
// returns the embedded value on the first match. The value and the signature
// are split at the last dot, so the value itself must not rely on dots being
// unique.
func Unsign(signed string, secrets ...string) (string, error) {
	if !strings.HasPrefix(signed, signedPrefix) {
		return "", ErrInvalidFormat
	}

	rest := signed[len(signedPrefix):]
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return "", ErrInvalidFormat
	}

	value, provided := rest[:dot], rest[dot+1:]

	for _, secret := range secrets {
		expected := signature(value, secret)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1 {
			return value, nil
		}
	}

	return "", ErrInvalidSignature
}

func signature(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}
