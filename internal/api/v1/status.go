package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool   `json:"initialized"`    // 是否已有结果集
	ResultSetCount int    `json:"resultSetCount"` // 结果集数量
	LastImportTime string `json:"lastImportTime"` // 最后导入时间
	Version        string `json:"version"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	count, err := h.store.CountResultSets()
	if err != nil {
		h.logger.Warn("count result sets failed", zap.Error(err))
		c.JSON(http.StatusOK, StatusResponse{Version: h.version})
		return
	}

	resp := StatusResponse{
		Initialized:    count > 0,
		ResultSetCount: count,
		Version:        h.version,
	}
	if logs, err := h.store.ListImportLogs(1); err == nil && len(logs) > 0 {
		resp.LastImportTime = logs[0].CreatedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}
