package controller

import (
	"net/http"

	"go.uber.org/zap"

	"tidyup-backend/usecase"
)

type CatalogController struct {
	usecase *usecase.CatalogUsecase
	log     *zap.Logger
}

func NewCatalogController(usecase *usecase.CatalogUsecase, log *zap.Logger) *CatalogController {
	return &CatalogController{usecase: usecase, log: log}
}

func (c *CatalogController) Categories(w http.ResponseWriter, r *http.Request) {
	list, err := c.usecase.Categories(r.Context())
	c.respond(w, r, list, err)
}

func (c *CatalogController) Conditions(w http.ResponseWriter, r *http.Request) {
	list, err := c.usecase.Conditions(r.Context())
	c.respond(w, r, list, err)
}

func (c *CatalogController) Locations(w http.ResponseWriter, r *http.Request) {
	list, err := c.usecase.Locations(r.Context())
	c.respond(w, r, list, err)
}

func (c *CatalogController) respond(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, v)
}
