package controller

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/usecase"
)

type ChatController struct {
	usecase *usecase.ChatUsecase
	log     *zap.Logger
}

func NewChatController(usecase *usecase.ChatUsecase, log *zap.Logger) *ChatController {
	return &ChatController{usecase: usecase, log: log}
}

func (c *ChatController) Open(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		badRequest(w, "item_id is required")
		return
	}
	chat, err := c.usecase.Open(r.Context(), middleware.UserID(r.Context()), req.ItemID)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (c *ChatController) List(w http.ResponseWriter, r *http.Request) {
	chats, err := c.usecase.ListMine(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// Messages pages backwards with ?before=<RFC3339 timestamp>.
func (c *ChatController) Messages(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, "limit must be an integer")
		return
	}
	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			badRequest(w, "before must be an RFC3339 timestamp")
			return
		}
		before = &t
	}
	msgs, err := c.usecase.Messages(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), before, limit)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (c *ChatController) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	msg, err := c.usecase.Send(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), req.Content)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (c *ChatController) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := c.usecase.MarkRead(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
