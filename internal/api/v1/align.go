package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ddionrails/ddionrails-sub000/internal/locale"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// AlignRequest 对齐请求
type AlignRequest struct {
	Main    string                   `json:"main" binding:"required"`
	Results []model.VariableLabelSet `json:"results"`
}

// AlignResponse 对齐结果；指定语言时附带 display_labels
type AlignResponse struct {
	*model.AlignedResult
	Language      locale.Language `json:"language,omitempty"`
	DisplayLabels []string        `json:"display_labels,omitempty"`
}

// Align 对请求体中的结果集做对齐，不入库
// POST /api/align
func (h *Handler) Align(c *gin.Context) {
	var req AlignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "无效的请求参数", err)
		return
	}

	res, err := h.aligner.Align(model.ResultSet{Results: req.Results}, req.Main)
	if err != nil {
		h.fail(c, alignStatus(err), "对齐失败", err)
		return
	}
	c.JSON(http.StatusOK, h.alignResponse(c, res))
}

// alignResponse 按 ?lang= 或 Accept-Language 附加展示标签
func (h *Handler) alignResponse(c *gin.Context, res *model.AlignedResult) AlignResponse {
	resp := AlignResponse{AlignedResult: res}

	explicit := c.Query("lang")
	accept := c.GetHeader("Accept-Language")
	if explicit == "" && accept == "" {
		return resp
	}
	resp.Language = locale.Match(explicit, accept, h.defaultLanguage())
	resp.DisplayLabels = locale.Labels(res, resp.Language)
	return resp
}
