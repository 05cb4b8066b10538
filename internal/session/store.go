package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"

	"nutrisnap/internal/model"
)

// persistKey holds the last session token across restarts.
const persistKey = "session:token"

// Store holds the current authenticated identity and fans out changes to
// subscribers. Tokens are minted by the external auth capability; the store
// only validates and republishes them. No retries live here.
type Store struct {
	mu      sync.RWMutex
	current *model.Session
	subs    []func(*model.Session)

	client    *goredis.Client
	jwtSecret string
}

func NewStore(client *goredis.Client, jwtSecret string) *Store {
	return &Store{client: client, jwtSecret: jwtSecret}
}

// Subscribe registers fn to run on every session transition, including the
// logout transition (nil session).
func (s *Store) Subscribe(fn func(*model.Session)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Current returns the active session, or nil when logged out.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Recover attempts to restore a previously persisted session at process
// start. A missing or invalid token leaves the store logged out; that is
// not an error.
func (s *Store) Recover(ctx context.Context) {
	token, err := s.client.Get(ctx, persistKey).Result()
	if errors.Is(err, goredis.Nil) {
		log.Println("[Session] Recover: no persisted session")
		return
	}
	if err != nil {
		log.Printf("[Session] Recover FAILED: %v", err)
		return
	}

	sess, err := s.parseToken(token)
	if err != nil {
		log.Printf("[Session] Recover: persisted token rejected: %v", err)
		_ = s.client.Del(ctx, persistKey).Err()
		return
	}

	log.Printf("[Session] Recover OK: user=%s", sess.UserID)
	s.publish(sess)
}

// SetToken validates a token from the auth capability, persists it, and
// publishes the resulting session.
func (s *Store) SetToken(ctx context.Context, token string) (*model.Session, error) {
	sess, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, persistKey, token, 0).Err(); err != nil {
		// Persistence is best-effort; the in-memory session still stands.
		log.Printf("[Session] persist token FAILED: %v", err)
	}

	s.publish(sess)
	return sess, nil
}

// Clear signs out: drops the persisted token and publishes a nil session so
// dependents clear their derived state.
func (s *Store) Clear(ctx context.Context) {
	if err := s.client.Del(ctx, persistKey).Err(); err != nil {
		log.Printf("[Session] clear persisted token FAILED: %v", err)
	}
	s.publish(nil)
}

func (s *Store) publish(sess *model.Session) {
	s.mu.Lock()
	s.current = sess
	subs := append(s.subs[:0:0], s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sess)
	}
}

// parseToken validates the HMAC signature and extracts identity claims.
func (s *Store) parseToken(tokenString string) (*model.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, model.ErrInvalidToken
	}
	name, _ := claims["name"].(string)

	return &model.Session{UserID: userID, Name: name, Token: tokenString}, nil
}
