package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/importer"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
	"github.com/ddionrails/ddionrails-sub000/internal/store"
)

// ResultSetDetail 结果集详情
type ResultSetDetail struct {
	store.ResultSetSummary
	Results []model.VariableLabelSet `json:"results"`
}

// UpdateResultSetRequest 修改结果集请求
type UpdateResultSetRequest struct {
	Main *string `json:"main"`
}

// ImportResultSet 上传并保存结果集（json / yaml / xlsx）
// POST /api/resultsets
//
// 表单字段 stream=true 时以 SSE 推送导入进度
func (h *Handler) ImportResultSet(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "未找到上传文件", nil)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "读取上传文件失败", err)
		return
	}
	defer file.Close()

	opts := importer.ImportOptions{
		Filename:     header.Filename,
		Reader:       file,
		Size:         header.Size,
		Name:         c.PostForm("name"),
		MainVariable: strings.TrimSpace(c.PostForm("main")),
		MaxVariables: h.cfg.Alignment.MaxVariables,
	}
	if f := c.PostForm("format"); f != "" {
		format, err := importer.ParseFormat(f)
		if err != nil {
			h.fail(c, http.StatusBadRequest, "不支持的文件格式", err)
			return
		}
		opts.Format = format
	}

	if c.PostForm("stream") != "true" {
		report, err := h.coordinator.Import(opts)
		if err != nil {
			h.fail(c, importStatus(err), "导入失败", err)
			return
		}
		c.JSON(http.StatusCreated, report)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.fail(c, http.StatusInternalServerError, "不支持流式响应", nil)
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// 导入过程中的事件通过回调同步写出，失败时由 error 事件告知客户端
	opts.Progress = func(event importer.ProgressEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
	_, _ = h.coordinator.Import(opts)
}

// ListResultSets 结果集列表
// GET /api/resultsets
func (h *Handler) ListResultSets(c *gin.Context) {
	items, err := h.store.ListResultSets()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "查询结果集失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// GetResultSet 结果集详情
// GET /api/resultsets/:id
func (h *Handler) GetResultSet(c *gin.Context) {
	summary, rs, ok := h.loadResultSet(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ResultSetDetail{ResultSetSummary: summary, Results: rs.Results})
}

// UpdateResultSet 修改默认主变量；空字符串表示清除
// PATCH /api/resultsets/:id
func (h *Handler) UpdateResultSet(c *gin.Context) {
	var req UpdateResultSetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Main == nil {
		h.fail(c, http.StatusBadRequest, "无效的请求参数", err)
		return
	}

	summary, rs, ok := h.loadResultSet(c)
	if !ok {
		return
	}
	main := strings.TrimSpace(*req.Main)
	if main != "" && !rs.Has(main) {
		h.fail(c, http.StatusNotFound, "主变量不存在", fmt.Errorf("%q: %w", main, alignment.ErrMainVariableNotFound))
		return
	}
	if err := h.store.SetMainVariable(summary.ID, main); err != nil {
		h.fail(c, http.StatusInternalServerError, "更新结果集失败", err)
		return
	}
	summary.MainVariable = main
	c.JSON(http.StatusOK, summary)
}

// DeleteResultSet 删除结果集
// DELETE /api/resultsets/:id
func (h *Handler) DeleteResultSet(c *gin.Context) {
	if err := h.store.DeleteResultSet(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "结果集不存在", nil)
			return
		}
		h.fail(c, http.StatusInternalServerError, "删除结果集失败", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AlignResultSet 对已保存的结果集做对齐
// GET /api/resultsets/:id/align?main=ID&lang=de
func (h *Handler) AlignResultSet(c *gin.Context) {
	summary, rs, ok := h.loadResultSet(c)
	if !ok {
		return
	}
	main := c.DefaultQuery("main", summary.MainVariable)
	if strings.TrimSpace(main) == "" {
		h.fail(c, http.StatusBadRequest, "未指定主变量", nil)
		return
	}

	res, err := h.aligner.Align(rs, main)
	if err != nil {
		h.fail(c, alignStatus(err), "对齐失败", err)
		return
	}
	c.JSON(http.StatusOK, h.alignResponse(c, res))
}

// loadResultSet 读取路径参数 id 对应的结果集，失败时已写出响应
func (h *Handler) loadResultSet(c *gin.Context) (store.ResultSetSummary, model.ResultSet, bool) {
	return h.loadResultSetByID(c, c.Param("id"))
}

func (h *Handler) loadResultSetByID(c *gin.Context, id string) (store.ResultSetSummary, model.ResultSet, bool) {
	summary, rs, err := h.store.GetResultSet(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "结果集不存在", nil)
		} else {
			h.fail(c, http.StatusInternalServerError, "读取结果集失败", err)
		}
		return store.ResultSetSummary{}, model.ResultSet{}, false
	}
	return summary, rs, true
}
