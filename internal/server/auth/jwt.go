// Package auth issues and verifies the signed credentials that identify a
// user: a short-lived access token and a long-lived refresh token, each
// signed with its own secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// SecretClass selects the secret a credential is signed and verified with.
type SecretClass int

const (
	AccessClass SecretClass = iota
	RefreshClass
)

func (c SecretClass) String() string {
	switch c {
	case AccessClass:
		return "access"
	case RefreshClass:
		return "refresh"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Identity is the part of a user that is embedded into credentials.
type Identity struct {
	ID       string
	UserName string
	Email    string
}

// Claims is the credential payload: the registered claims plus the identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, UserName: c.UserName, Email: c.Email}
}

var ErrMissingSecret = errors.New("token secret is empty")

// TokenService signs and verifies credentials. It never touches storage.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService fails when a secret is missing; callers treat that as fatal.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccess(id Identity) (string, error) {
	return GenerateToken(id, s.accessSecret, s.now(), s.accessTTL)
}

func (s *TokenService) IssueRefresh(id Identity) (string, error) {
	return GenerateToken(id, s.refreshSecret, s.now(), s.refreshTTL)
}

// Verify checks signature and expiry of token against the secret of class.
// It returns common.ErrMalformedToken, common.ErrInvalidToken or
// common.ErrTokenExpired; the signature is checked first, so a credential of
// the other class is always invalid.
func (s *TokenService) Verify(token string, class SecretClass) (*Claims, error) {
	var secret []byte
	switch class {
	case AccessClass:
		secret = s.accessSecret
	case RefreshClass:
		secret = s.refreshSecret
	default:
		return nil, fmt.Errorf("%w: unknown secret class %s", common.ErrInvalidToken, class)
	}
	return ParseToken(token, secret, s.now)
}

// GenerateToken signs an HS256 token for id that expires ttl after now.
func GenerateToken(id Identity, secretKey []byte, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   id.ID,
		UserName: id.UserName,
		Email:    id.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString with secretKey and returns its claims.
func ParseToken(tokenString string, secretKey []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
}
