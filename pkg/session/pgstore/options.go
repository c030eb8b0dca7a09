package pgstore

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Option configures a Store.
type Option func(*Store)

// WithTable sets the table name. A dotted name is treated as schema.table.
func WithTable(name string) Option {
	return func(s *Store) {
		if name = strings.TrimSpace(name); name != "" {
			s.table = pgx.Identifier(strings.Split(name, ".")).Sanitize()
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
