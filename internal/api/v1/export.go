package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/config"
	"github.com/ddionrails/ddionrails-sub000/internal/exporter"
	"github.com/ddionrails/ddionrails-sub000/internal/locale"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
	"github.com/ddionrails/ddionrails-sub000/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRequest 导出请求
type ExportRequest struct {
	ResultSetID string `json:"resultSetId" binding:"required"`
	Main        string `json:"main"`      // 为空时使用结果集默认主变量
	Lang        string `json:"lang"`      // 为空时使用 export.language
	SheetName   string `json:"sheetName"` // 为空时使用 export.sheet_name
}

// ExportResponse 导出响应
type ExportResponse struct {
	Token       string `json:"token"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int    `json:"expiresIn"` // 秒
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

// exportJob 一次导出所需的对齐结果与写出参数
type exportJob struct {
	summary  store.ResultSetSummary
	main     string
	lang     locale.Language
	res      *model.AlignedResult
	opts     exporter.Options
	filePath string
}

// prepareExport 解析请求并完成对齐，失败时已写出错误响应
func (h *Handler) prepareExport(c *gin.Context) (*exportJob, bool) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "无效的请求参数", err)
		return nil, false
	}

	summary, rs, ok := h.loadResultSetByID(c, req.ResultSetID)
	if !ok {
		return nil, false
	}
	main := strings.TrimSpace(req.Main)
	if main == "" {
		main = summary.MainVariable
	}
	if main == "" {
		h.fail(c, http.StatusBadRequest, "未指定主变量", nil)
		return nil, false
	}

	res, err := h.aligner.Align(rs, main)
	if err != nil {
		h.fail(c, alignStatus(err), "对齐失败", err)
		return nil, false
	}

	settings := h.settings()
	lang := locale.Match(req.Lang, "", locale.Language(settings[settingExportLanguage]))
	sheet := settings[settingExportSheetName]
	if req.SheetName != "" {
		if sheet, err = exporter.ValidateSheetName(req.SheetName); err != nil {
			h.fail(c, http.StatusBadRequest, "无效的工作表名称", err)
			return nil, false
		}
	}

	if _, err := config.EnsureDataDir(h.cfg); err != nil {
		h.fail(c, http.StatusInternalServerError, "创建导出目录失败", err)
		return nil, false
	}
	return &exportJob{
		summary:  summary,
		main:     main,
		lang:     lang,
		res:      res,
		opts:     exporter.Options{SheetName: sheet, Language: lang},
		filePath: config.GetDataPath(h.cfg, "exports", uuid.NewString()+".xlsx"),
	}, true
}

// publish 登记下载令牌
func (h *Handler) publish(job *exportJob) ExportResponse {
	filename := exportFilename(job.summary.Name, job.main, job.lang)
	ttl := h.cfg.Export.DownloadTTLDuration()
	token := h.downloads.put(job.filePath, filename, ttl)

	h.logger.Info("export ready",
		zap.String("resultSetId", job.summary.ID),
		zap.String("main", job.main),
		zap.String("lang", string(job.lang)),
		zap.Int("labels", len(job.res.Labels)))

	return ExportResponse{
		Token:       token,
		Filename:    filename,
		DownloadURL: "/api/export/download/" + token,
		ExpiresIn:   int(ttl / time.Second),
	}
}

// Export 对齐并生成 Excel，返回一次性下载令牌
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	job, ok := h.prepareExport(c)
	if !ok {
		return
	}
	if err := writeExportFile(job.filePath, job.res, job.opts); err != nil {
		h.fail(c, http.StatusInternalServerError, "导出失败", err)
		return
	}
	c.JSON(http.StatusOK, h.publish(job))
}

type exportStreamEvent struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
//
// 请求校验与对齐失败时按普通 JSON 错误返回，写出阶段的失败由 error 事件告知
func (h *Handler) ExportStream(c *gin.Context) {
	job, ok := h.prepareExport(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.fail(c, http.StatusInternalServerError, "不支持流式响应", nil)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(event exportStreamEvent) {
		event.Timestamp = time.Now()
		if event.Data == nil {
			event.Data = map[string]any{}
		}
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportStreamEvent{
		Type:    "start",
		Message: "开始导出",
		Data:    map[string]any{"resultSetId": job.summary.ID, "main": job.main},
	})

	lastPercent := -1
	job.opts.Progress = func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportStreamEvent{
			Type:    "progress",
			Message: p.Stage,
			Data:    map[string]any{"percent": p.Percent},
		})
	}

	if err := writeExportFile(job.filePath, job.res, job.opts); err != nil {
		h.logger.Error("export failed", zap.String("resultSetId", job.summary.ID), zap.Error(err))
		send(exportStreamEvent{Type: "error", Message: "导出失败: " + err.Error()})
		return
	}

	resp := h.publish(job)
	send(exportStreamEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"percent":     100,
			"token":       resp.Token,
			"filename":    resp.Filename,
			"downloadUrl": resp.DownloadURL,
			"expiresIn":   resp.ExpiresIn,
		},
	})
}

// DownloadExport 下载导出文件，令牌只能使用一次
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		h.fail(c, http.StatusNotFound, "下载链接已失效", nil)
		return
	}
	defer os.Remove(item.filePath)

	c.Header("Content-Disposition", exporter.ContentDisposition(item.filename))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)
}

func writeExportFile(path string, res *model.AlignedResult, opts exporter.Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return exporter.WriteXLSX(f, res, opts)
}

func exportFilename(name, main string, lang locale.Language) string {
	base := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if base == "" {
		base = "labels"
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", base, unsafeFilenameChars.ReplaceAllString(main, "_"), lang)
}
