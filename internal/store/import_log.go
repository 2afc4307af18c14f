package store

import (
	"database/sql"
	"fmt"
	"time"
)

// 导入状态
const (
	ImportStatusProcessing = "processing"
	ImportStatusSuccess    = "success"
	ImportStatusFailed     = "failed"
)

// ImportLog 导入日志
type ImportLog struct {
	ID            int64      `json:"id"`
	Filename      string     `json:"filename"`
	Format        string     `json:"format"`
	FileSize      int64      `json:"fileSize"`
	ResultSetID   string     `json:"resultSetId"`
	VariableCount int        `json:"variableCount"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename, format string, fileSize int64) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, format, file_size, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, filename, format, fileSize, ImportStatusProcessing, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(id int64, resultSetID string, variableCount int, status, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			result_set_id = ?,
			variable_count = ?,
			status = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, resultSetID, variableCount, status, errorMessage, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志，limit <= 0 时返回全部
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, filename, format, file_size, result_set_id, variable_count,
		       status, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []ImportLog{}
	for rows.Next() {
		var (
			it        ImportLog
			completed sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.Filename, &it.Format, &it.FileSize, &it.ResultSetID,
			&it.VariableCount, &it.Status, &it.ErrorMessage, &it.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}
