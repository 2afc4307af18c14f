package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	v1 "github.com/ddionrails/ddionrails-sub000/internal/api/v1"
	"github.com/ddionrails/ddionrails-sub000/internal/config"
	"github.com/ddionrails/ddionrails-sub000/internal/importer"
	"github.com/ddionrails/ddionrails-sub000/internal/logging"
	"github.com/ddionrails/ddionrails-sub000/internal/metrics"
	"github.com/ddionrails/ddionrails-sub000/internal/store"
)

// DBFileName 数据目录下的 SQLite 文件名
const DBFileName = "labelalign.db"

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	store   *store.Store
	metrics *metrics.Recorder
	v1      *v1.Handler
	logger  *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger *zap.Logger, version string) (*Server, error) {
	logger = logging.OrNop(logger)
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	sqliteStore, err := store.New(filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	recorder := metrics.NewRecorder()
	aligner := alignment.NewAligner(logger.Named("alignment"), recorder)
	coordinator := importer.NewCoordinator(sqliteStore, logger.Named("importer"), recorder)

	s := &Server{
		router:  gin.New(),
		store:   sqliteStore,
		metrics: recorder,
		v1:      v1.NewHandler(sqliteStore, cfg, aligner, coordinator, logger.Named("api"), version),
		logger:  logger,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), logging.GinMiddleware(s.logger.Named("http")))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 http.Handler，供 http.Server 使用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close 关闭数据库
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
