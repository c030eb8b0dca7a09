// Package cookie signs session identifiers and writes them as HTTP cookies.
//
// Signing follows the connect/express "cookie-signature" scheme so that a
// cookie issued by this package is accepted by a Node.js server configured
// with the same secret, and the other way round:
//
//	s:<value>.<base64(HMAC-SHA256(secret, value)) without '=' padding>
//
// Sign always uses a single secret. Unsign tries every secret in order, which
// allows rotation: put the new secret first and keep the old ones until the
// cookies signed with them have expired.
//
// # Usage
//
//	man, err := cookie.New([]string{"new-secret", "old-secret"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_ = man.SetSigned(w, "connect.sid", sessionID, cookie.WithExpires(exp))
//
//	id, err := man.GetSigned(r, "connect.sid")
//	if errors.Is(err, cookie.ErrInvalidSignature) {
//		// tampered or signed with an unknown secret
//	}
//
// Signed values are written URI-component encoded ("s%3A..."), matching the
// cookie serializer used by express. Reading accepts both encoded and raw
// values.
//
// # Errors
//
//   - ErrNoSecret: New called without a non-empty secret
//   - ErrCookieNotFound: the request carries no cookie with that name
//   - ErrInvalidFormat: value lacks the "s:" prefix or the signature separator
//   - ErrInvalidSignature: no configured secret produces the signature
package cookie
