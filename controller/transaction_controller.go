package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/model"
	"tidyup-backend/usecase"
)

type TransactionController struct {
	usecase *usecase.TransactionUsecase
	log     *zap.Logger
}

func NewTransactionController(usecase *usecase.TransactionUsecase, log *zap.Logger) *TransactionController {
	return &TransactionController{usecase: usecase, log: log}
}

func (c *TransactionController) Open(w http.ResponseWriter, r *http.Request) {
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
	t, err := c.usecase.Open(r.Context(), middleware.UserID(r.Context()), req.ItemID)
	c.respond(w, r, http.StatusCreated, t, err)
}

func (c *TransactionController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.usecase.ListMine(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *TransactionController) Get(w http.ResponseWriter, r *http.Request) {
	t, err := c.usecase.Get(r.Context(), mux.Vars(r)["id"], actor(r))
	c.respond(w, r, http.StatusOK, t, err)
}

func (c *TransactionController) Confirm(w http.ResponseWriter, r *http.Request) {
	t, err := c.usecase.Confirm(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()))
	c.respond(w, r, http.StatusOK, t, err)
}

func (c *TransactionController) Cancel(w http.ResponseWriter, r *http.Request) {
	t, err := c.usecase.Cancel(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()))
	c.respond(w, r, http.StatusOK, t, err)
}

func (c *TransactionController) Dispute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := c.usecase.Dispute(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), req.Reason)
	c.respond(w, r, http.StatusOK, t, err)
}

func (c *TransactionController) Resolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Outcome string `json:"outcome"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := c.usecase.Resolve(r.Context(), mux.Vars(r)["id"], actor(r), req.Outcome)
	c.respond(w, r, http.StatusOK, t, err)
}

func (c *TransactionController) respond(w http.ResponseWriter, r *http.Request, status int, t *model.Transaction, err error) {
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, status, t)
}
