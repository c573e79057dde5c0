package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tidyup-backend/middleware"
	"tidyup-backend/usecase"
)

type UserController struct {
	users        *usecase.UserUsecase
	gamification *usecase.GamificationUsecase
	log          *zap.Logger
}

func NewUserController(users *usecase.UserUsecase, gamification *usecase.GamificationUsecase, log *zap.Logger) *UserController {
	return &UserController{users: users, gamification: gamification, log: log}
}

func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	s, err := c.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	s, err := c.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *UserController) LoginSSO(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
		IDToken  string `json:"id_token"`
	}
	if !decode(w, r, &req) {
		return
	}
	s, err := c.users.LoginSSO(r.Context(), req.Provider, req.IDToken)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	u, err := c.users.Me(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string  `json:"name"`
		Bio        string  `json:"bio"`
		LocationID *string `json:"location_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, err := c.users.UpdateProfile(r.Context(), middleware.UserID(r.Context()), req.Name, req.Bio, req.LocationID)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (c *UserController) ListSSOLinks(w http.ResponseWriter, r *http.Request) {
	links, err := c.users.ListSSOLinks(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (c *UserController) UnlinkSSO(w http.ResponseWriter, r *http.Request) {
	if err := c.users.UnlinkSSO(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["provider"]); err != nil {
		writeError(w, c.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *UserController) PublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := c.users.PublicProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (c *UserController) Gamification(w http.ResponseWriter, r *http.Request) {
	st, err := c.gamification.Status(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (c *UserController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, "limit must be an integer")
		return
	}
	entries, err := c.gamification.Leaderboard(r.Context(), r.URL.Query().Get("period"), limit)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
