package controller

import (
	"net/http"

	"go.uber.org/zap"

	"tidyup-backend/usecase"
)

type AdminController struct {
	audit *usecase.AuditUsecase
	log   *zap.Logger
}

func NewAdminController(audit *usecase.AuditUsecase, log *zap.Logger) *AdminController {
	return &AdminController{audit: audit, log: log}
}

func (c *AdminController) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok1 := queryInt(r, "limit")
	offset, ok2 := queryInt(r, "offset")
	if !ok1 || !ok2 {
		badRequest(w, "limit and offset must be integers")
		return
	}
	logs, err := c.audit.List(r.Context(), actor(r), limit, offset)
	if err != nil {
		writeError(w, c.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
