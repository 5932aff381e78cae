package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Claims is the token payload.
type Claims struct {
	Role     shared.Role `json:"role"`
	Name     string      `json:"name"`
	Username string      `json:"username"`
	jwt.RegisteredClaims
}

// TokenStore remembers which token ids are live. Deleting an id revokes the
// token before it expires.
type TokenStore interface {
	Save(ctx context.Context, jti string, subject string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Delete(ctx context.Context, jti string) error
}

// RedisTokenStore keeps token ids in Redis with the token TTL.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore constructs a store under the "auth:token:" prefix.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: "auth:token:"}
}

func (s *RedisTokenStore) Save(ctx context.Context, jti, subject string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+jti, subject, ttl).Err()
}

func (s *RedisTokenStore) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, jti string) error {
	return s.client.Del(ctx, s.prefix+jti).Err()
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	store  TokenStore
	now    func() time.Time
}

// NewTokens constructs a token issuer.
func NewTokens(secret string, ttl time.Duration, store TokenStore) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}
}

// Issue signs a token for p and records its id.
func (t *Tokens) Issue(ctx context.Context, p shared.Principal) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl).Truncate(time.Second)
	jti := uuid.NewString()
	claims := Claims{
		Role:     p.Role,
		Name:     p.Name,
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	if err := t.store.Save(ctx, jti, p.ID.String(), t.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("store token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and checks it has not been revoked.
func (t *Tokens) Verify(ctx context.Context, token string) (shared.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return shared.Principal{}, fmt.Errorf("%w: session expired", shared.ErrUnauthorized)
		default:
			return shared.Principal{}, fmt.Errorf("%w: invalid token", shared.ErrUnauthorized)
		}
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return shared.Principal{}, fmt.Errorf("%w: invalid token", shared.ErrUnauthorized)
	}
	live, err := t.store.Exists(ctx, claims.ID)
	if err != nil {
		return shared.Principal{}, fmt.Errorf("check token: %w", err)
	}
	if !live {
		return shared.Principal{}, fmt.Errorf("%w: session ended", shared.ErrUnauthorized)
	}
	return shared.Principal{
		ID:        id,
		Name:      claims.Name,
		Username:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke ends the session of the token id.
func (t *Tokens) Revoke(ctx context.Context, jti string) error {
	return t.store.Delete(ctx, jti)
}
