package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/usecase"
)

type NotificationController struct {
	usecase *usecase.NotificationUsecase
	log     *zap.Logger
}

func NewNotificationController(usecase *usecase.NotificationUsecase, log *zap.Logger) *NotificationController {
	return &NotificationController{usecase: usecase, log: log}
}

func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, "limit must be an integer")
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	list, err := c.usecase.List(r.Context(), middleware.UserID(r.Context()), unread, limit)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := c.usecase.UnreadCount(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.MarkRead(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context())); err != nil {
		writeError(w, c.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := c.usecase.MarkAllRead(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
