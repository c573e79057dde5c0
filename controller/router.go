package controller

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/pkg/hub"
	"tidyup-backend/pkg/metrics"
)

// Handlers is everything NewRouter mounts.
type Handlers struct {
	Users         *UserController
	Catalog       *CatalogController
	Items         *ItemController
	Transactions  *TransactionController
	Chats         *ChatController
	Community     *CommunityController
	Notifications *NotificationController
	Admin         *AdminController

	Hub       *hub.Hub
	Auth      *middleware.Auth
	CORS      *middleware.CORS
	RateLimit *middleware.RateLimiter
	// Ready reports whether the backing stores are reachable.
	Ready func(ctx context.Context) error
	Log   *zap.Logger
}

// NewRouter builds the full HTTP surface. Metrics are collected on the
// router so the route template is known; the outer chain is recover,
// request log and CORS. Rate limiting is applied per route: after auth on
// authenticated routes so each user has a bucket, and per client IP on
// public ones. Health and metrics scrapes are not limited.
func NewRouter(h Handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	public := func(fn http.HandlerFunc) http.Handler { return h.RateLimit.Handler(fn) }
	authed := func(fn http.HandlerFunc) http.Handler { return h.Auth.Require(h.RateLimit.Handler(fn)) }

	r.NotFoundHandler = public(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
	})
	r.MethodNotAllowedHandler = public(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.Handle("/auth/register", public(h.Users.Register)).Methods(http.MethodPost)
	r.Handle("/auth/login", public(h.Users.Login)).Methods(http.MethodPost)
	r.Handle("/auth/sso", public(h.Users.LoginSSO)).Methods(http.MethodPost)

	r.Handle("/categories", public(h.Catalog.Categories)).Methods(http.MethodGet)
	r.Handle("/conditions", public(h.Catalog.Conditions)).Methods(http.MethodGet)
	r.Handle("/locations", public(h.Catalog.Locations)).Methods(http.MethodGet)

	r.Handle("/me", authed(h.Users.Me)).Methods(http.MethodGet)
	r.Handle("/me", authed(h.Users.UpdateMe)).Methods(http.MethodPut)
	r.Handle("/me/sso", authed(h.Users.ListSSOLinks)).Methods(http.MethodGet)
	r.Handle("/me/sso/{provider}", authed(h.Users.UnlinkSSO)).Methods(http.MethodDelete)
	r.Handle("/me/gamification", authed(h.Users.Gamification)).Methods(http.MethodGet)
	r.Handle("/users/{id}", public(h.Users.PublicProfile)).Methods(http.MethodGet)
	r.Handle("/leaderboard", public(h.Users.Leaderboard)).Methods(http.MethodGet)

	r.Handle("/items", public(h.Items.GetItems)).Methods(http.MethodGet)
	r.Handle("/items", authed(h.Items.CreateItem)).Methods(http.MethodPost)
	r.Handle("/items/{id}", public(h.Items.GetItem)).Methods(http.MethodGet)
	r.Handle("/items/{id}", authed(h.Items.UpdateItem)).Methods(http.MethodPut)
	r.Handle("/items/{id}", authed(h.Items.DeleteItem)).Methods(http.MethodDelete)
	r.Handle("/ai/suggest", authed(h.Items.Suggest)).Methods(http.MethodPost)

	r.Handle("/transactions", authed(h.Transactions.Open)).Methods(http.MethodPost)
	r.Handle("/transactions", authed(h.Transactions.List)).Methods(http.MethodGet)
	r.Handle("/transactions/{id}", authed(h.Transactions.Get)).Methods(http.MethodGet)
	r.Handle("/transactions/{id}/confirm", authed(h.Transactions.Confirm)).Methods(http.MethodPost)
	r.Handle("/transactions/{id}/cancel", authed(h.Transactions.Cancel)).Methods(http.MethodPost)
	r.Handle("/transactions/{id}/dispute", authed(h.Transactions.Dispute)).Methods(http.MethodPost)

	r.Handle("/chats", authed(h.Chats.Open)).Methods(http.MethodPost)
	r.Handle("/chats", authed(h.Chats.List)).Methods(http.MethodGet)
	r.Handle("/chats/{id}/messages", authed(h.Chats.Messages)).Methods(http.MethodGet)
	r.Handle("/chats/{id}/messages", authed(h.Chats.Send)).Methods(http.MethodPost)
	r.Handle("/chats/{id}/read", authed(h.Chats.MarkRead)).Methods(http.MethodPost)

	r.Handle("/posts", public(h.Community.ListPosts)).Methods(http.MethodGet)
	r.Handle("/posts", authed(h.Community.CreatePost)).Methods(http.MethodPost)
	r.Handle("/posts/{id}", public(h.Community.GetPost)).Methods(http.MethodGet)
	r.Handle("/posts/{id}", authed(h.Community.UpdatePost)).Methods(http.MethodPut)
	r.Handle("/posts/{id}", authed(h.Community.DeletePost)).Methods(http.MethodDelete)
	r.Handle("/posts/{id}/comments", public(h.Community.ListComments)).Methods(http.MethodGet)
	r.Handle("/posts/{id}/comments", authed(h.Community.AddComment)).Methods(http.MethodPost)
	r.Handle("/posts/{id}/reactions", authed(h.Community.React)).Methods(http.MethodPost)
	r.Handle("/comments/{id}", authed(h.Community.DeleteComment)).Methods(http.MethodDelete)

	r.Handle("/notifications", authed(h.Notifications.List)).Methods(http.MethodGet)
	r.Handle("/notifications/unread-count", authed(h.Notifications.UnreadCount)).Methods(http.MethodGet)
	r.Handle("/notifications/read-all", authed(h.Notifications.MarkAllRead)).Methods(http.MethodPost)
	r.Handle("/notifications/{id}/read", authed(h.Notifications.MarkRead)).Methods(http.MethodPost)

	r.Handle("/admin/transactions/{id}/resolve", authed(h.Transactions.Resolve)).Methods(http.MethodPost)
	r.Handle("/admin/audit-logs", authed(h.Admin.AuditLogs)).Methods(http.MethodGet)

	r.Handle("/ws", authed(func(w http.ResponseWriter, req *http.Request) {
		h.Hub.ServeWS(w, req, middleware.UserID(req.Context()))
	})).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = h.CORS.Handler(handler)
	handler = middleware.RequestLog(h.Log)(handler)
	handler = middleware.Recover(h.Log)(handler)
	return handler
}

func (h Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			h.Log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
