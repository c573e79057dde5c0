package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/model"
	"tidyup-backend/usecase"
)

type ItemController struct {
	usecase   *usecase.ItemUsecase
	assistant *usecase.AssistantUsecase
	log       *zap.Logger
}

func NewItemController(usecase *usecase.ItemUsecase, assistant *usecase.AssistantUsecase, log *zap.Logger) *ItemController {
	return &ItemController{usecase: usecase, assistant: assistant, log: log}
}

func (c *ItemController) GetItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ItemFilter{
		CategoryID:  q.Get("category_id"),
		ConditionID: q.Get("condition_id"),
		LocationID:  q.Get("location_id"),
		SellerID:    q.Get("seller_id"),
		Status:      q.Get("status"),
		Query:       q.Get("q"),
	}
	var ok bool
	if filter.MinPrice, ok = queryFloat(r, "min_price"); !ok {
		badRequest(w, "min_price must be a number")
		return
	}
	if filter.MaxPrice, ok = queryFloat(r, "max_price"); !ok {
		badRequest(w, "max_price must be a number")
		return
	}
	if filter.Limit, ok = queryInt(r, "limit"); !ok {
		badRequest(w, "limit must be an integer")
		return
	}
	if filter.Offset, ok = queryInt(r, "offset"); !ok {
		badRequest(w, "offset must be an integer")
		return
	}

	items, err := c.usecase.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (c *ItemController) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := c.usecase.GetItemByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (c *ItemController) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in usecase.ItemInput
	if !decode(w, r, &in) {
		return
	}
	item, err := c.usecase.CreateItem(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (c *ItemController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var in usecase.ItemInput
	if !decode(w, r, &in) {
		return
	}
	item, err := c.usecase.UpdateItem(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), in)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (c *ItemController) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.DeleteItem(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context())); err != nil {
		writeError(w, c.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suggest asks the assistant for a category and price before listing.
func (c *ItemController) Suggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Condition   string `json:"condition"`
	}
	if !decode(w, r, &req) {
		return
	}
	s, err := c.assistant.Suggest(r.Context(), req.Title, req.Description, req.Condition)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
