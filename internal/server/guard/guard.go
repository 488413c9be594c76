// Package guard authenticates HTTP requests by their access credential and
// attaches the resolved user to the request context. It never writes state.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type TokenVerifier interface {
	Verify(token string, class auth.SecretClass) (*auth.Claims, error)
}

// IdentityResolver loads a user by id; a missing user is common.ErrorNotFound.
type IdentityResolver interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type ctxKey struct{}

type SessionGuard struct {
	tokens TokenVerifier
	users  IdentityResolver
	logger logging.Logger
}

func NewSessionGuard(tokens TokenVerifier, users IdentityResolver, logger logging.Logger) *SessionGuard {
	return &SessionGuard{tokens: tokens, users: users, logger: logger.With("module", "guard")}
}

// Authenticate returns the caller of r. Every credential problem is reported
// as common.ErrorUnauthorized; a store failure is common.ErrorInternal.
func (g *SessionGuard) Authenticate(r *http.Request) (*models.User, error) {
	ctx := r.Context()

	token := credential(r)
	if token == "" {
		return nil, fmt.Errorf("%w: no token provided", common.ErrorUnauthorized)
	}

	claims, err := g.tokens.Verify(token, auth.AccessClass)
	if err != nil {
		g.logger.Info(ctx, "token rejected", "path", r.URL.Path, "reason", err)
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.logger.Info(ctx, "token for unknown user", "user_id", claims.UserID)
			return nil, fmt.Errorf("%w: user not found", common.ErrorUnauthorized)
		}
		g.logger.Error(ctx, "resolve user", "user_id", claims.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	safe := *user
	safe.PasswordHash = nil
	safe.RefreshToken = ""
	return &safe, nil
}

// Middleware authenticates every request; failures go to onError and the
// chain stops.
func (g *SessionGuard) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := g.Authenticate(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the user attached by Middleware.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}

// credential prefers the Authorization header over the cookie.
func credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
	}
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil {
		return c.Value
	}
	return ""
}
