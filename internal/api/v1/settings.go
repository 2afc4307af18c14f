package v1

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/exporter"
	"github.com/ddionrails/ddionrails-sub000/internal/locale"
)

// 运行时设置键，存放在 store 的 config 表中，覆盖配置文件
const (
	settingExportLanguage  = "export.language"
	settingExportSheetName = "export.sheet_name"
	settingDefaultLanguage = "alignment.default_language"
)

// UpdateSettingsRequest 更新设置请求
type UpdateSettingsRequest struct {
	// 使用 map 允许部分更新
	Updates map[string]string `json:"updates"`
}

var settingValidators = map[string]func(string) (string, error){
	settingExportLanguage:  validateLanguage,
	settingExportSheetName: exporter.ValidateSheetName,
	settingDefaultLanguage: validateLanguage,
}

func validateLanguage(v string) (string, error) {
	lang, ok := locale.Parse(v)
	if !ok {
		return "", fmt.Errorf("unsupported language %q", v)
	}
	return string(lang), nil
}

// settings 当前生效的设置：store 中的值覆盖配置文件
func (h *Handler) settings() map[string]string {
	out := map[string]string{
		settingExportLanguage:  h.cfg.Export.Language,
		settingExportSheetName: h.cfg.Export.SheetName,
		settingDefaultLanguage: h.cfg.Alignment.DefaultLanguage,
	}
	stored, err := h.store.GetAllConfig()
	if err != nil {
		h.logger.Warn("load settings failed", zap.Error(err))
		return out
	}
	for k := range out {
		if v, ok := stored[k]; ok && v != "" {
			out[k] = v
		}
	}
	return out
}

func (h *Handler) defaultLanguage() locale.Language {
	if l, ok := locale.Parse(h.settings()[settingDefaultLanguage]); ok {
		return l
	}
	return locale.English
}

// GetSettings 获取运行时设置
// GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings())
}

// UpdateSettings 部分更新运行时设置，任一键无效时整体拒绝
// PATCH /api/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Updates) == 0 {
		h.fail(c, http.StatusBadRequest, "无效的请求参数", err)
		return
	}

	keys := make([]string, 0, len(req.Updates))
	for k := range req.Updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]string, len(keys))
	for _, k := range keys {
		validate, ok := settingValidators[k]
		if !ok {
			h.fail(c, http.StatusBadRequest, "未知的设置项", fmt.Errorf("%q", k))
			return
		}
		v, err := validate(req.Updates[k])
		if err != nil {
			h.fail(c, http.StatusBadRequest, "设置值无效", err)
			return
		}
		values[k] = v
	}

	for _, k := range keys {
		if err := h.store.SetConfig(k, values[k]); err != nil {
			h.fail(c, http.StatusInternalServerError, "保存设置失败", err)
			return
		}
	}
	c.JSON(http.StatusOK, h.settings())
}
