// Package session manages server-side sessions that are wire compatible
// with the connect/express session middleware. A Go service and a Node.js
// service configured with the same secrets, cookie name and store prefix can
// read and write each other's live sessions.
//
// Three formats are shared with that ecosystem:
//
//   - the cookie value "s:<id>.<signature>", produced by pkg/cookie
//   - the store key, Config.StorePrefix + id ("sess:" by default)
//   - the stored JSON envelope: payload keys plus a reserved "cookie" object
//     with originalMaxAge, expires, secure, httpOnly, path and optional
//     domain and sameSite
//
// # Lifecycle
//
// Manager.Load resolves a request to a *Session. Missing, forged and
// expired cookies, store misses and store failures all produce a fresh
// session; store failures are still reported through Session.LoadError and
// the ErrorHandler. Manager.Commit then decides what to do:
//
//   - destroyed: delete the entry and clear the cookie
//   - fresh and empty with SaveUninitialized off: nothing
//   - modified, fresh, or Resave: Store.Set and send the cookie
//   - Rolling only: Store.Touch and send the cookie
//   - otherwise: nothing
//
// After Regenerate the old entry is always deleted. A cookie whose expiry
// has passed is destroyed instead of persisted.
//
// # Usage
//
//	cfg := session.DefaultConfig()
//	cfg.Secrets = []string{"current-secret", "previous-secret"}
//
//	mgr, err := session.New(cfg,
//		session.WithStore(session.NewRedisStore(redisClient)),
//		session.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	mux.Handle("/", mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//		sess := session.MustFromContext(r.Context())
//		views, _ := sess.GetInt("views")
//		_ = sess.Set("views", views+1)
//	})))
//
// Without the middleware, call Load at the start of the handler and Commit
// before writing the response.
//
// # Stores
//
// MemoryStore and RedisStore ship with the package; pgstore and mongostore
// live in sub-packages. Any type implementing Store can be used. Stores that
// can enumerate their entries also implement Lister.
//
// # Errors
//
// ErrNotFound, ErrMalformedSession, ErrStoreUnavailable and
// ErrInvalidConfiguration are matched with errors.Is. Commit returns write
// failures; the response itself is never rolled back.
package session
