package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultImportLimit = 50
	maxImportLimit     = 500
)

// ListImports 导入日志（最新在前）
// GET /api/imports?limit=N
func (h *Handler) ListImports(c *gin.Context) {
	limit := defaultImportLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(c, http.StatusBadRequest, "无效的 limit", nil)
			return
		}
		limit = min(n, maxImportLimit)
	}

	logs, err := h.store.ListImportLogs(limit)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "查询导入日志失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
}
