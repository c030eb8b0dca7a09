package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultCollection is the collection name connect-mongo uses.
const DefaultCollection = "sessions"

// Option configures a Store.
type Option func(*Store)

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.collection = name
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

// Store implements session.Store and session.Lister on a MongoDB collection.
type Store struct {
	db         *mongo.Database
	collection string
	now        func() time.Time
}

var (
	_ session.Store  = (*Store)(nil)
	_ session.Lister = (*Store)(nil)
)

type document struct {
	ID      string     `bson:"_id"`
	Session string     `bson:"session"`
	Expires *time.Time `bson:"expires,omitempty"`
}

// New creates a store using db. The caller owns the client.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		db:         db,
		collection: DefaultCollection,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) coll() *mongo.Collection {
	return s.db.Collection(s.collection)
}

// EnsureIndexes creates the TTL index on expires.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*session.Data, error) {
	filter := bson.D{{Key: "_id", Value: key}}
	filter = append(filter, s.live()...)

	var doc document
	if err := s.coll().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, session.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return session.Unmarshal([]byte(doc.Session))
}

func (s *Store) Set(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	raw, err := data.Marshal()
	if err != nil {
		return err
	}

	doc := document{ID: key, Session: string(raw), Expires: s.expires(ttl)}
	_, err = s.coll().ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: key}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Touch moves expires only. Missing documents are not created.
func (s *Store) Touch(ctx context.Context, key string, _ *session.Data, ttl time.Duration) error {
	update := bson.D{{Key: "$unset", Value: bson.D{{Key: "expires", Value: ""}}}}
	if exp := s.expires(ttl); exp != nil {
		update = bson.D{{Key: "$set", Value: bson.D{{Key: "expires", Value: *exp}}}}
	}

	if _, err := s.coll().UpdateOne(ctx, bson.D{{Key: "_id", Value: key}}, update); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Destroy(ctx context.Context, key string) error {
	if _, err := s.coll().DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Len(ctx context.Context, prefix string) (int, error) {
	n, err := s.coll().CountDocuments(ctx, s.prefixed(prefix))
	if err != nil {
		return 0, unavailable(err)
	}
	return int(n), nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	docs, err := s.find(ctx, prefix, options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, doc.ID)
	}
	return keys, nil
}

// All skips documents whose payload does not parse.
func (s *Store) All(ctx context.Context, prefix string) (map[string]*session.Data, error) {
	docs, err := s.find(ctx, prefix, options.Find())
	if err != nil {
		return nil, err
	}

	all := make(map[string]*session.Data, len(docs))
	for _, doc := range docs {
		data, err := session.Unmarshal([]byte(doc.Session))
		if err != nil {
			continue
		}
		all[doc.ID] = data
	}
	return all, nil
}

func (s *Store) Clear(ctx context.Context, prefix string) error {
	filter := bson.D{{Key: "_id", Value: prefixRegex(prefix)}}
	if _, err := s.coll().DeleteMany(ctx, filter); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) find(ctx context.Context, prefix string, opts *options.FindOptionsBuilder) ([]document, error) {
	cur, err := s.coll().Find(ctx, s.prefixed(prefix), opts)
	if err != nil {
		return nil, unavailable(err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable(err)
	}
	return docs, nil
}

// live matches documents without expires or with expires in the future.
func (s *Store) live() bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "expires", Value: bson.D{{Key: "$gt", Value: s.now().UTC()}}}},
	}}}
}

func (s *Store) prefixed(prefix string) bson.D {
	filter := bson.D{{Key: "_id", Value: prefixRegex(prefix)}}
	return append(filter, s.live()...)
}

func (s *Store) expires(ttl time.Duration) *time.Time {
	if ttl <= session.NoExpiry {
		return nil
	}
	exp := s.now().Add(ttl).UTC()
	return &exp
}

func prefixRegex(prefix string) bson.Regex {
	return bson.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", session.ErrStoreUnavailable, err)
}
