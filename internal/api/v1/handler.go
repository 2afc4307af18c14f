package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/config"
	"github.com/ddionrails/ddionrails-sub000/internal/importer"
	"github.com/ddionrails/ddionrails-sub000/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	store       *store.Store
	cfg         *config.AppConfig
	aligner     *alignment.Aligner
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore
	logger      *zap.Logger
	version     string
}

// NewHandler 创建 V1 API 处理器
func NewHandler(st *store.Store, cfg *config.AppConfig, aligner *alignment.Aligner, coordinator *importer.Coordinator, logger *zap.Logger, version string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if aligner == nil {
		aligner = alignment.NewAligner(logger, nil)
	}
	if coordinator == nil {
		coordinator = importer.NewCoordinator(st, logger, nil)
	}
	return &Handler{
		store:       st,
		cfg:         cfg,
		aligner:     aligner,
		coordinator: coordinator,
		downloads:   newExportDownloadStore(),
		logger:      logger,
		version:     version,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 直接对齐（不入库）
	router.POST("/align", h.Align)

	// 结果集
	router.POST("/resultsets", h.ImportResultSet)
	router.GET("/resultsets", h.ListResultSets)
	router.GET("/resultsets/:id", h.GetResultSet)
	router.PATCH("/resultsets/:id", h.UpdateResultSet)
	router.DELETE("/resultsets/:id", h.DeleteResultSet)
	router.GET("/resultsets/:id/align", h.AlignResultSet)

	// 导入日志
	router.GET("/imports", h.ListImports)

	// 运行时设置
	router.GET("/settings", h.GetSettings)
	router.PATCH("/settings", h.UpdateSettings)

	// 数据导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}

// alignStatus 对齐错误对应的 HTTP 状态码
func alignStatus(err error) int {
	switch {
	case errors.Is(err, alignment.ErrLengthMismatch),
		errors.Is(err, alignment.ErrNonFiniteValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, alignment.ErrMainVariableNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// importStatus 导入错误对应的 HTTP 状态码
func importStatus(err error) int {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrHeaderNotFound),
		errors.Is(err, importer.ErrEmptyVariableID):
		return http.StatusBadRequest
	case errors.Is(err, importer.ErrTooManyVariables),
		errors.Is(err, alignment.ErrLengthMismatch),
		errors.Is(err, alignment.ErrNonFiniteValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, alignment.ErrMainVariableNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}
