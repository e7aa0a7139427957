package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// Session is the value stored under a bearer token.
type Session struct {
	UserID    int64 `json:"uid"`
	Role      Role  `json:"role"`
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

// SessionStore resolves bearer tokens against sessions kept in redis. Sessions
// are written and revoked by the login service that shares the keyspace.
type SessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewSessionStore creates a redis-backed session store.
func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb, now: time.Now}
}

func sessionKey(token string) string { return fmt.Sprintf("labequip:sess:%s", token) }

// Get loads the session for token.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	b, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(b, s.now())
}

func decodeSession(b []byte, now time.Time) (*Session, error) {
	var sess Session
	if err := jsoniter.ConfigFastest.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("corrupt session: %w", err)
	}
	if sess.ExpiresAt > 0 && now.Unix() >= sess.ExpiresAt {
		return nil, ErrSessionNotFound
	}
	if sess.UserID <= 0 || !sess.Role.Valid() {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Resolve implements Resolver using the request's bearer token.
func (s *SessionStore) Resolve(r *http.Request) (Actor, error) {
	token, ok := BearerToken(r)
	if !ok {
		return Actor{}, ErrUnauthenticated
	}
	sess, err := s.Get(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Actor{}, ErrUnauthenticated
		}
		return Actor{}, err
	}
	return Actor{ID: sess.UserID, Role: sess.Role}, nil
}
