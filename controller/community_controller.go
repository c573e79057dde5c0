package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/usecase"
)

type CommunityController struct {
	usecase *usecase.CommunityUsecase
	log     *zap.Logger
}

func NewCommunityController(usecase *usecase.CommunityUsecase, log *zap.Logger) *CommunityController {
	return &CommunityController{usecase: usecase, log: log}
}

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (c *CommunityController) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, ok1 := queryInt(r, "limit")
	offset, ok2 := queryInt(r, "offset")
	if !ok1 || !ok2 {
		badRequest(w, "limit and offset must be integers")
		return
	}
	posts, err := c.usecase.ListPosts(r.Context(), r.URL.Query().Get("author_id"), limit, offset)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (c *CommunityController) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := c.usecase.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *CommunityController) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := c.usecase.CreatePost(r.Context(), middleware.UserID(r.Context()), req.Title, req.Body)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (c *CommunityController) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := c.usecase.UpdatePost(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), req.Title, req.Body)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *CommunityController) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.DeletePost(r.Context(), mux.Vars(r)["id"], actor(r)); err != nil {
		writeError(w, c.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CommunityController) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := c.usecase.ListComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (c *CommunityController) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if !decode(w, r, &req) {
		return
	}
	cm, err := c.usecase.AddComment(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), req.Body)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cm)
}

func (c *CommunityController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := c.usecase.DeleteComment(r.Context(), mux.Vars(r)["id"], actor(r)); err != nil {
		writeError(w, c.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CommunityController) React(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := c.usecase.ToggleReaction(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()), req.Kind)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
