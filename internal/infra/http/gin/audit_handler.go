package ginserver

import (
	"context"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"staypay/internal/app/audit"
)

// AuditHistory lists stored audit entries for one entity, newest first.
type AuditHistory interface {
	Recent(ctx context.Context, entityType, entityID string, limit int64) ([]audit.Entry, error)
}

type AuditHandler struct {
	Store AuditHistory
}

func (h AuditHandler) History(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit unavailable"})
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	entries, err := h.Store.Recent(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

var _ AuditHTTP = AuditHandler{}
