package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// ErrTokenRevoked is returned for tokens that were logged out.
var ErrTokenRevoked = errors.New("token has been revoked")

const issuer = "fileindex"

// Claims holds JWT token claims. They mirror models.Identity.
type Claims struct {
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 session tokens and remembers revoked
// ones until they would have expired anyway.
type Tokens struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // token hash -> expiry
}

// NewTokens creates a token issuer.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

// Issue signs a token for id.
func (t *Tokens) Issue(id *models.Identity) (string, time.Time, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    id.ID,
		Username:  id.Username,
		Role:      id.Role,
		CreatedAt: id.CreatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, claims.ExpiresAt.Time, nil
}

// Parse validates tokenStr and returns the identity it carries.
func (t *Tokens) Parse(tokenStr string) (*models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", claims.Role)
	}

	t.mu.Lock()
	_, revoked := t.revoked[hashToken(tokenStr)]
	t.mu.Unlock()
	if revoked {
		return nil, ErrTokenRevoked
	}

	return &models.Identity{
		ID:        claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		CreatedAt: claims.CreatedAt,
	}, nil
}

// Revoke marks tokenStr as logged out. Unparseable tokens are ignored.
func (t *Tokens) Revoke(tokenStr string) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims)
	if err != nil || claims.ExpiresAt == nil {
		return
	}

	now := time.Now()
	t.mu.Lock()
	for h, exp := range t.revoked {
		if now.After(exp) {
			delete(t.revoked, h)
		}
	}
	t.revoked[hashToken(tokenStr)] = claims.ExpiresAt.Time
	n := len(t.revoked)
	t.mu.Unlock()
	metrics.SetRevokedTokens(n)
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
