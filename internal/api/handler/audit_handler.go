package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// AuditHandler lists the audit journal.
type AuditHandler struct {
	repo ports.AuditRepository
}

func NewAuditHandler(repo ports.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List returns audit entries, newest first.
//
// @Summary      Audit journal
// @Tags         audit
// @Produce      json
// @Param        username  query     string  false  "Operator"
// @Param        kind      query     string  false  "Error kind"
// @Param        since     query     string  false  "RFC 3339 lower bound"
// @Param        limit     query     int     false  "At most this many entries"
// @Success      200       {array}   domain.AuditEntry
// @Failure      403       {object}  errorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	var q auditListQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}

	f := domain.AuditFilter{Username: q.Username, ErrorKind: domain.ErrorKind(q.ErrorKind), Limit: q.Limit}
	if q.Since != "" {
		since, err := time.Parse(time.RFC3339, q.Since)
		if err != nil {
			return domain.ValidationError("since must be an RFC 3339 timestamp", map[string][]string{"since": {"invalid timestamp"}})
		}
		f.Since = since
	}

	entries, err := h.repo.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
