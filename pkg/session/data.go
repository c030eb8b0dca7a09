package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// CookieKey is the reserved top-level envelope key holding cookie metadata.
const CookieKey = "cookie"

// expiresLayout is the ISO-8601 form produced by Date.prototype.toJSON.
const expiresLayout = "2006-01-02T15:04:05.000Z"

// CookieMeta mirrors the cookie attributes stored alongside the payload.
type CookieMeta struct {
	// OriginalMaxAge is the lifetime the cookie was issued with. Nil means a
	// browser session cookie.
	OriginalMaxAge *time.Duration
	// Expires is the absolute expiry. Nil means no expiry.
	Expires  *time.Time
	Secure   bool
	HTTPOnly bool
	Path     string
	Domain   string
	// SameSite is "strict", "lax", "none" or empty when unset.
	SameSite string
}

// Persistent reports whether the cookie carries an expiry.
func (c CookieMeta) Persistent() bool {
	return c.Expires != nil
}

// MaxAge returns the time left until Expires, or zero when the cookie has no
// expiry or has already expired.
func (c CookieMeta) MaxAge(now time.Time) time.Duration {
	if c.Expires == nil {
		return 0
	}
	return max(c.Expires.Sub(now), 0)
}

// Reset recomputes Expires as now + OriginalMaxAge.
func (c *CookieMeta) Reset(now time.Time) {
	if c.OriginalMaxAge == nil {
		c.Expires = nil
		return
	}
	exp := now.Add(*c.OriginalMaxAge).UTC().Truncate(time.Millisecond)
	c.Expires = &exp
}

// SetMaxAge sets both OriginalMaxAge and Expires from d. A zero or negative
// d yields an already expired cookie.
func (c *CookieMeta) SetMaxAge(d time.Duration, now time.Time) {
	d = d.Truncate(time.Millisecond)
	c.OriginalMaxAge = &d
	c.Reset(now)
}

// SetExpires sets an absolute expiry. OriginalMaxAge is derived from it the
// way the cookie module does when an expiry is assigned directly. A nil t
// turns the cookie into a browser session cookie.
func (c *CookieMeta) SetExpires(t *time.Time, now time.Time) {
	if t == nil {
		c.Expires = nil
		c.OriginalMaxAge = nil
		return
	}
	exp := t.UTC().Truncate(time.Millisecond)
	d := exp.Sub(now).Truncate(time.Millisecond)
	c.Expires = &exp
	c.OriginalMaxAge = &d
}

type wireCookie struct {
	OriginalMaxAge *int64  `json:"originalMaxAge"`
	Expires        *string `json:"expires"`
	Secure         bool    `json:"secure"`
	HTTPOnly       bool    `json:"httpOnly"`
	Domain         string  `json:"domain,omitempty"`
	Path           string  `json:"path"`
	SameSite       string  `json:"sameSite,omitempty"`
}

func (c CookieMeta) MarshalJSON() ([]byte, error) {
	w := wireCookie{
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		Domain:   c.Domain,
		Path:     c.Path,
		SameSite: c.SameSite,
	}
	if c.OriginalMaxAge != nil {
		ms := c.OriginalMaxAge.Milliseconds()
		w.OriginalMaxAge = &ms
	}
	if c.Expires != nil {
		s := c.Expires.UTC().Format(expiresLayout)
		w.Expires = &s
	}
	return json.Marshal(w)
}

func (c *CookieMeta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return errors.New("cookie metadata is not an object")
	}

	var meta CookieMeta

	if v, ok := raw["originalMaxAge"]; ok && !isNull(v) {
		var ms float64
		if err := json.Unmarshal(v, &ms); err != nil {
			return fmt.Errorf("originalMaxAge: %w", err)
		}
		d := time.Duration(ms) * time.Millisecond
		meta.OriginalMaxAge = &d
	}
	if v, ok := raw["expires"]; ok && !isNull(v) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("expires: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("expires: %w", err)
		}
		t = t.UTC()
		meta.Expires = &t
	}
	if err := unmarshalOptional(raw, "secure", &meta.Secure); err != nil {
		return err
	}
	if err := unmarshalOptional(raw, "httpOnly", &meta.HTTPOnly); err != nil {
		return err
	}
	if err := unmarshalOptional(raw, "path", &meta.Path); err != nil {
		return err
	}
	if err := unmarshalOptional(raw, "domain", &meta.Domain); err != nil {
		return err
	}
	if v, ok := raw["sameSite"]; ok && !isNull(v) {
		// The cookie module also accepts booleans: true means strict.
		var b bool
		if json.Unmarshal(v, &b) == nil {
			if b {
				meta.SameSite = "strict"
			}
		} else if err := json.Unmarshal(v, &meta.SameSite); err != nil {
			return fmt.Errorf("sameSite: %w", err)
		} else {
			meta.SameSite = strings.ToLower(meta.SameSite)
		}
	}

	*c = meta
	return nil
}

func unmarshalOptional(raw map[string]json.RawMessage, key string, target any) error {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, target); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// Data is the unit persisted by a Store: user payload plus cookie metadata.
type Data struct {
	Values map[string]Value
	Cookie CookieMeta
}

// NewData returns empty data with the given cookie metadata.
func NewData(cookie CookieMeta) *Data {
	return &Data{
		Values: make(map[string]Value),
		Cookie: cookie,
	}
}

// Clone returns a deep copy of d.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	out := &Data{
		Values: make(map[string]Value, len(d.Values)),
		Cookie: d.Cookie,
	}
	for k, v := range d.Values {
		out.Values[k] = v.Clone()
	}
	if d.Cookie.OriginalMaxAge != nil {
		v := *d.Cookie.OriginalMaxAge
		out.Cookie.OriginalMaxAge = &v
	}
	if d.Cookie.Expires != nil {
		v := *d.Cookie.Expires
		out.Cookie.Expires = &v
	}
	return out
}

// Marshal encodes d as the shared JSON envelope: payload keys in sorted
// order followed by the reserved "cookie" object.
func (d *Data) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, k := range slices.Sorted(maps.Keys(d.Values)) {
		if k == CookieKey {
			continue
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := d.Values[k].encode(&buf); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	meta, err := d.Cookie.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"` + CookieKey + `":`)
	buf.Write(meta)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Data) MarshalJSON() ([]byte, error) {
	return d.Marshal()
}

// Unmarshal decodes an envelope. Anything other than a JSON object with a
// well-formed "cookie" object fails with ErrMalformedSession.
func Unmarshal(raw []byte) (*Data, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Join(ErrMalformedSession, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: envelope is null", ErrMalformedSession)
	}

	cookieRaw, ok := fields[CookieKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing cookie metadata", ErrMalformedSession)
	}

	d := &Data{Values: make(map[string]Value, len(fields)-1)}
	if err := d.Cookie.UnmarshalJSON(cookieRaw); err != nil {
		return nil, errors.Join(ErrMalformedSession, err)
	}

	for k, v := range fields {
		if k == CookieKey {
			continue
		}
		var val Value
		if err := val.UnmarshalJSON(v); err != nil {
			return nil, errors.Join(ErrMalformedSession, err)
		}
		d.Values[k] = val
	}
	return d, nil
}

func (d *Data) UnmarshalJSON(raw []byte) error {
	decoded, err := Unmarshal(raw)
	if err != nil {
		return err
	}
	*d = *decoded
	return nil
}
