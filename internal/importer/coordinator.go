package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
	"github.com/ddionrails/ddionrails-sub000/internal/store"
)

// ErrTooManyVariables 结果集变量数超过上限
var ErrTooManyVariables = errors.New("too many variables")

// ImportObserver 导入结果观察者
type ImportObserver interface {
	ObserveImport(format string, err error)
}

// Coordinator 导入协调器：解码、校验、入库并记录导入日志
type Coordinator struct {
	store    *store.Store
	logger   *zap.Logger
	observer ImportObserver
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st *store.Store, logger *zap.Logger, observer ImportObserver) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:    st,
		logger:   logger,
		observer: observer,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Filename     string
	Format       Format // 为空时按 Filename 扩展名判断
	Reader       io.Reader
	Size         int64
	Name         string // 结果集名称，默认取文件名
	MainVariable string // 默认主变量，可为空；非空时必须存在于结果集中
	MaxVariables int    // 0 表示不限制
	Progress     func(ProgressEvent)
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // start/decoded/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Report 导入结果
type Report struct {
	ImportLogID int64                  `json:"importLogId"`
	ResultSet   store.ResultSetSummary `json:"resultSet"`
	Format      Format                 `json:"format"`
	Duration    time.Duration          `json:"duration"`
}

// Import 执行导入
func (c *Coordinator) Import(opts ImportOptions) (*Report, error) {
	start := time.Now()

	format := opts.Format
	if format == "" {
		f, err := FormatFromFilename(opts.Filename)
		if err != nil {
			c.notify(opts, "", err)
			return nil, err
		}
		format = f
	}

	sendProgress(opts.Progress, "start", "开始导入", map[string]string{
		"filename": opts.Filename,
		"format":   string(format),
	})

	logID, err := c.store.CreateImportLog(opts.Filename, string(format), opts.Size)
	if err != nil {
		c.notify(opts, format, err)
		return nil, err
	}

	summary, err := c.decodeAndSave(opts, format)
	if err != nil {
		if ferr := c.store.FinishImportLog(logID, "", 0, store.ImportStatusFailed, err.Error()); ferr != nil {
			c.logger.Warn("update import log failed", zap.Int64("importLogId", logID), zap.Error(ferr))
		}
		c.notify(opts, format, err)
		return nil, err
	}

	if err := c.store.FinishImportLog(logID, summary.ID, summary.VariableCount, store.ImportStatusSuccess, ""); err != nil {
		c.logger.Warn("update import log failed", zap.Int64("importLogId", logID), zap.Error(err))
	}

	report := &Report{
		ImportLogID: logID,
		ResultSet:   summary,
		Format:      format,
		Duration:    time.Since(start),
	}
	c.logger.Info("import done",
		zap.String("filename", opts.Filename),
		zap.String("resultSetId", summary.ID),
		zap.Int("variables", summary.VariableCount),
		zap.Duration("duration", report.Duration))
	c.notify(opts, format, nil)
	sendProgress(opts.Progress, "done", "导入完成", report)
	return report, nil
}

func (c *Coordinator) decodeAndSave(opts ImportOptions, format Format) (store.ResultSetSummary, error) {
	rs, err := Decode(opts.Reader, format)
	if err != nil {
		return store.ResultSetSummary{}, err
	}
	sendProgress(opts.Progress, "decoded", fmt.Sprintf("解析到 %d 个变量", len(rs.Results)), nil)

	if opts.MaxVariables > 0 && len(rs.Results) > opts.MaxVariables {
		return store.ResultSetSummary{}, fmt.Errorf("%d > %d: %w", len(rs.Results), opts.MaxVariables, ErrTooManyVariables)
	}
	if opts.MainVariable != "" && !rs.Has(opts.MainVariable) {
		return store.ResultSetSummary{}, fmt.Errorf("variable %q: %w", opts.MainVariable, alignment.ErrMainVariableNotFound)
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(opts.Filename), filepath.Ext(opts.Filename))
	}
	return c.store.SaveResultSet(name, opts.MainVariable, rs)
}

func (c *Coordinator) notify(opts ImportOptions, format Format, err error) {
	if err != nil {
		c.logger.Warn("import failed", zap.String("filename", opts.Filename), zap.Error(err))
		sendProgress(opts.Progress, "error", err.Error(), nil)
	}
	if c.observer != nil {
		c.observer.ObserveImport(string(format), err)
	}
}

func sendProgress(progress func(ProgressEvent), typ, message string, data interface{}) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{
		Type:      typ,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// ImportFile 从本地文件解码结果集（不入库）
func ImportFile(path string) (model.ResultSet, error) {
	format, err := FormatFromFilename(path)
	if err != nil {
		return model.ResultSet{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.ResultSet{}, err
	}
	defer f.Close()

	return Decode(f, format)
}
