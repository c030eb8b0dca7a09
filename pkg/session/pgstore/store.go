package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultTable matches the table created by Migrations.
const DefaultTable = "session"

// Querier is the subset of pgx used by the store. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements session.Store and session.Lister on a PostgreSQL table.
type Store struct {
	db    Querier
	table string
	now   func() time.Time
}

var (
	_ session.Store  = (*Store)(nil)
	_ session.Lister = (*Store)(nil)
)

// New creates a store on top of db. The caller owns db.
func New(db Querier, opts ...Option) *Store {
	s := &Store{
		db:    db,
		table: pgx.Identifier{DefaultTable}.Sanitize(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (*session.Data, error) {
	query := fmt.Sprintf(`SELECT sess FROM %s WHERE sid = $1 AND expire >= $2`, s.table)

	var raw []byte
	if err := s.db.QueryRow(ctx, query, key, s.timestamp()).Scan(&raw); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return session.Unmarshal(raw)
}

func (s *Store) Set(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	raw, err := data.Marshal()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (sid, sess, expire) VALUES ($1, $2, $3)
ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expire = EXCLUDED.expire`, s.table)

	if _, err := s.db.Exec(ctx, query, key, string(raw), s.expire(ttl)); err != nil {
		return unavailable(err)
	}
	return nil
}

// Touch moves the expire column only, like connect-pg-simple. Missing rows
// stay missing.
func (s *Store) Touch(ctx context.Context, key string, _ *session.Data, ttl time.Duration) error {
	query := fmt.Sprintf(`UPDATE %s SET expire = $2 WHERE sid = $1`, s.table)

	if _, err := s.db.Exec(ctx, query, key, s.expire(ttl)); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Destroy(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE sid = $1`, s.table)

	if _, err := s.db.Exec(ctx, query, key); err != nil {
		return unavailable(err)
	}
	return nil
}

// Prune deletes expired rows and reports how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expire < $1`, s.table)

	tag, err := s.db.Exec(ctx, query, s.timestamp())
	if err != nil {
		return 0, unavailable(err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Len(ctx context.Context, prefix string) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s
WHERE left(sid, length($1)) = $1 AND expire >= $2`, s.table)

	var n int64
	if err := s.db.QueryRow(ctx, query, prefix, s.timestamp()).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return int(n), nil
}

// Keys aggregates the ids server side so a single row comes back.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := fmt.Sprintf(`SELECT coalesce(json_agg(sid ORDER BY sid), '[]'::json) FROM %s
WHERE left(sid, length($1)) = $1 AND expire >= $2`, s.table)

	var raw []byte
	if err := s.db.QueryRow(ctx, query, prefix, s.timestamp()).Scan(&raw); err != nil {
		return nil, unavailable(err)
	}

	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

// All skips rows whose payload does not parse.
func (s *Store) All(ctx context.Context, prefix string) (map[string]*session.Data, error) {
	query := fmt.Sprintf(`SELECT coalesce(json_object_agg(sid, sess), '{}'::json) FROM %s
WHERE left(sid, length($1)) = $1 AND expire >= $2`, s.table)

	var raw []byte
	if err := s.db.QueryRow(ctx, query, prefix, s.timestamp()).Scan(&raw); err != nil {
		return nil, unavailable(err)
	}

	var rows map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, unavailable(err)
	}

	all := make(map[string]*session.Data, len(rows))
	for key, sess := range rows {
		data, err := session.Unmarshal(sess)
		if err != nil {
			continue
		}
		all[key] = data
	}
	return all, nil
}

func (s *Store) Clear(ctx context.Context, prefix string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE left(sid, length($1)) = $1`, s.table)

	if _, err := s.db.Exec(ctx, query, prefix); err != nil {
		return unavailable(err)
	}
	return nil
}

// timestamp is the current time as a timestamp without time zone in UTC,
// the convention connect-pg-simple writes.
func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// expire converts a ttl into the expire column value. NoExpiry maps to
// 'infinity' because the column is NOT NULL.
func (s *Store) expire(ttl time.Duration) pgtype.Timestamp {
	if ttl <= session.NoExpiry {
		return pgtype.Timestamp{InfinityModifier: pgtype.Infinity, Valid: true}
	}
	return pgtype.Timestamp{Time: s.timestamp().Add(ttl), Valid: true}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", session.ErrStoreUnavailable, err)
}
