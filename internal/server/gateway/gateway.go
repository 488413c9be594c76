// Package gateway accepts WebSocket connections, keeps the presence registry
// in sync with them and broadcasts the online-users snapshot on every change.
package gateway

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/events"
	"github.com/dmitrijs2005/gophchat/internal/server/metrics"
	"github.com/dmitrijs2005/gophchat/internal/server/presence"
	"github.com/gorilla/websocket"
)

// TokenVerifier checks the access credential offered during the handshake.
type TokenVerifier interface {
	Verify(token string, class auth.SecretClass) (*auth.Claims, error)
}

type Options struct {
	// RequireToken makes the handshake carry an access token for the same user.
	RequireToken bool
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
}

type Gateway struct {
	registry *presence.Registry
	tokens   TokenVerifier
	logger   logging.Logger
	metrics  *metrics.Collector
	opts     Options
	upgrader websocket.Upgrader
}

func New(registry *presence.Registry, tokens TokenVerifier, logger logging.Logger, m *metrics.Collector, opts Options) *Gateway {
	return &Gateway{
		registry: registry,
		tokens:   tokens,
		logger:   logger.With("module", "gateway"),
		metrics:  m,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get(common.UserIDParam)
	if userID == "" {
		g.metrics.ConnectionEvent("rejected")
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	if g.opts.RequireToken && !g.tokenMatches(ctx, r, userID) {
		g.metrics.ConnectionEvent("rejected")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn(ctx, "upgrade failed", "user_id", userID, "error", err)
		return
	}

	c := newConnection(userID, ws, g.opts.SendBuffer, g.logger)
	go c.writePump(ctx)

	if old := g.registry.Register(userID, c); old != nil {
		old.Close()
		g.metrics.ConnectionEvent("replaced")
		g.logger.Info(ctx, "connection replaced", "user_id", userID)
	}
	g.metrics.ConnectionEvent("opened")
	g.metrics.SetOnline(g.registry.Len())
	g.logger.Info(ctx, "user connected", "user_id", userID)
	g.BroadcastPresence(ctx)

	defer func() {
		g.registry.Deregister(userID, c)
		c.Close()
		g.metrics.ConnectionEvent("closed")
		g.metrics.SetOnline(g.registry.Len())
		g.logger.Info(ctx, "user disconnected", "user_id", userID)
		g.BroadcastPresence(ctx)
	}()

	c.readPump(ctx)
}

func (g *Gateway) tokenMatches(ctx context.Context, r *http.Request, userID string) bool {
	token := r.URL.Query().Get(common.TokenParam)
	if token == "" {
		if cookie, err := r.Cookie(common.AccessTokenCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		g.logger.Info(ctx, "handshake without token", "user_id", userID)
		return false
	}

	claims, err := g.tokens.Verify(token, auth.AccessClass)
	if err != nil {
		g.logger.Info(ctx, "handshake token rejected", "user_id", userID, "error", err)
		return false
	}
	if claims.UserID != userID {
		g.logger.Warn(ctx, "handshake token for another user", "user_id", userID, "token_user_id", claims.UserID)
		return false
	}
	return true
}

// BroadcastPresence pushes the current online-users snapshot to every
// registered connection. A failed send is logged and skipped.
func (g *Gateway) BroadcastPresence(ctx context.Context) {
	frame, err := events.Encode(events.OnlineUsers, g.registry.SnapshotIDs())
	if err != nil {
		g.logger.Error(ctx, "encode presence", "error", err)
		return
	}

	for _, h := range g.registry.Handles() {
		if err := h.Send(frame); err != nil {
			g.logger.Warn(ctx, "presence push failed", "user_id", h.UserID(), "error", err)
		}
	}
	g.metrics.Broadcast()
}

// Close closes every registered connection. Their handlers then deregister.
func (g *Gateway) Close() {
	for _, h := range g.registry.Handles() {
		h.Close()
	}
}
