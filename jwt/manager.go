package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a token whose exp claim is in the past. The
	// signature may still be valid; expiry always wins.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports every other parse failure: bad signature, wrong
	// signing algorithm, malformed segments, or a token signed with the
	// other variant's key.
	ErrInvalid = errors.New("token invalid")
)

const (
	// DefaultAccessTTL is the access-token lifetime applied when the
	// caller does not override it.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the fixed refresh-token lifetime (180 days).
	DefaultRefreshTTL = 180 * 24 * time.Hour
)

// Config carries the signing material and lifetimes for both token
// variants. It is read-only after [NewManager].
type Config struct {
	AccessKey  []byte
	RefreshKey []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Claims is the wire payload of both token variants: the username in the
// registered sub claim, the store-assigned user id in "id", and exp.
type Claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access and refresh tokens. Safe for
// concurrent use; it holds no mutable state after construction.
type Manager struct {
	config Config
}

// NewManager validates the config and returns a ready Manager. Both keys
// must be present and distinct, and both TTLs positive.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if len(cfg.AccessKey) == 0 {
		return nil, errors.New("access signing key required")
	}
	if len(cfg.RefreshKey) == 0 {
		return nil, errors.New("refresh signing key required")
	}
	if bytes.Equal(cfg.AccessKey, cfg.RefreshKey) {
		return nil, errors.New("access and refresh signing keys must differ")
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL returns the configured default access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// CreateAccess signs an access token for the identity. A ttl <= 0 falls
// back to the configured default.
func (m *Manager) CreateAccess(username string, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.config.AccessTTL
	}
	return m.create(m.config.AccessKey, username, userID, ttl)
}

// CreateRefresh signs a refresh token for the identity. The lifetime is
// always the configured RefreshTTL; callers cannot shorten or extend it.
func (m *Manager) CreateRefresh(username string, userID int64) (string, error) {
	return m.create(m.config.RefreshKey, username, userID, m.config.RefreshTTL)
}

// ParseAccess verifies a token against the access key only. A refresh
// token passed here fails with [ErrInvalid].
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return m.parse(m.config.AccessKey, tokenStr)
}

// ParseRefresh verifies a token against the refresh key only. An access
// token passed here fails with [ErrInvalid].
func (m *Manager) ParseRefresh(tokenStr string) (*Claims, error) {
	return m.parse(m.config.RefreshKey, tokenStr)
}

func (m *Manager) create(key []byte, username string, userID int64, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (m *Manager) parse(key []byte, tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}
