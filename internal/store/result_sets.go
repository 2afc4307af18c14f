package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// ResultSetSummary 结果集概要
type ResultSetSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MainVariable  string    `json:"mainVariable"`
	VariableCount int       `json:"variableCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SaveResultSet 保存结果集，返回新生成的 ID
func (s *Store) SaveResultSet(name, mainVariable string, rs model.ResultSet) (ResultSetSummary, error) {
	summary := ResultSetSummary{
		ID:            uuid.NewString(),
		Name:          name,
		MainVariable:  mainVariable,
		VariableCount: len(rs.Results),
		CreatedAt:     time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return ResultSetSummary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO result_sets (id, name, main_variable, variable_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, summary.ID, summary.Name, summary.MainVariable, summary.VariableCount, summary.CreatedAt); err != nil {
		return ResultSetSummary{}, fmt.Errorf("failed to insert result set: %w", err)
	}

	varStmt, err := tx.Prepare(`
		INSERT INTO variables (result_set_id, seq, variable, dataset, period)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ResultSetSummary{}, fmt.Errorf("failed to prepare variable insert: %w", err)
	}
	defer varStmt.Close()

	labelStmt, err := tx.Prepare(`
		INSERT INTO variable_labels (result_set_id, seq, position, label, label_de, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ResultSetSummary{}, fmt.Errorf("failed to prepare label insert: %w", err)
	}
	defer labelStmt.Close()

	for seq, set := range rs.Results {
		if err := alignment.Validate(set); err != nil {
			return ResultSetSummary{}, err
		}
		if _, err := varStmt.Exec(summary.ID, seq, set.Variable, set.Dataset, set.Period); err != nil {
			return ResultSetSummary{}, fmt.Errorf("failed to insert variable %s: %w", set.Variable, err)
		}
		t := set.Labels
		for pos := range t.Labels {
			if _, err := labelStmt.Exec(summary.ID, seq, pos, t.Labels[pos], t.LabelsDE[pos], t.Values[pos]); err != nil {
				return ResultSetSummary{}, fmt.Errorf("failed to insert label %s[%d]: %w", set.Variable, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ResultSetSummary{}, fmt.Errorf("failed to commit result set: %w", err)
	}
	return summary, nil
}

// GetResultSetSummary 获取结果集概要
func (s *Store) GetResultSetSummary(id string) (ResultSetSummary, error) {
	var it ResultSetSummary
	err := s.db.QueryRow(`
		SELECT id, name, main_variable, variable_count, created_at
		FROM result_sets WHERE id = ?
	`, id).Scan(&it.ID, &it.Name, &it.MainVariable, &it.VariableCount, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResultSetSummary{}, fmt.Errorf("result set %s: %w", id, ErrNotFound)
		}
		return ResultSetSummary{}, fmt.Errorf("failed to query result set: %w", err)
	}
	return it, nil
}

// GetResultSet 读取完整结果集，变量与标签顺序与保存时一致
func (s *Store) GetResultSet(id string) (ResultSetSummary, model.ResultSet, error) {
	summary, err := s.GetResultSetSummary(id)
	if err != nil {
		return ResultSetSummary{}, model.ResultSet{}, err
	}

	rows, err := s.db.Query(`
		SELECT seq, variable, dataset, period
		FROM variables WHERE result_set_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return ResultSetSummary{}, model.ResultSet{}, fmt.Errorf("failed to query variables: %w", err)
	}

	rs := model.ResultSet{Results: make([]model.VariableLabelSet, 0, summary.VariableCount)}
	bySeq := make(map[int]int, summary.VariableCount)
	for rows.Next() {
		var seq int
		set := model.VariableLabelSet{Labels: emptyTriple()}
		if err := rows.Scan(&seq, &set.Variable, &set.Dataset, &set.Period); err != nil {
			rows.Close()
			return ResultSetSummary{}, model.ResultSet{}, fmt.Errorf("failed to scan variable: %w", err)
		}
		bySeq[seq] = len(rs.Results)
		rs.Results = append(rs.Results, set)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return ResultSetSummary{}, model.ResultSet{}, fmt.Errorf("iterate variables failed: %w", err)
	}
	rows.Close()

	labelRows, err := s.db.Query(`
		SELECT seq, label, label_de, value
		FROM variable_labels WHERE result_set_id = ?
		ORDER BY seq, position
	`, id)
	if err != nil {
		return ResultSetSummary{}, model.ResultSet{}, fmt.Errorf("failed to query labels: %w", err)
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var (
			seq            int
			label, labelDE string
			value          float64
		)
		if err := labelRows.Scan(&seq, &label, &labelDE, &value); err != nil {
			return ResultSetSummary{}, model.ResultSet{}, fmt.Errorf("failed to scan label: %w", err)
		}
		idx, ok := bySeq[seq]
		if !ok {
			continue
		}
		t := &rs.Results[idx].Labels
		t.Labels = append(t.Labels, label)
		t.LabelsDE = append(t.LabelsDE, labelDE)
		t.Values = append(t.Values, value)
	}
	if err := labelRows.Err(); err != nil {
		return ResultSetSummary{}, model.ResultSet{}, fmt.Errorf("iterate labels failed: %w", err)
	}

	return summary, rs, nil
}

// ListResultSets 列出全部结果集（最新在前）
func (s *Store) ListResultSets() ([]ResultSetSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, main_variable, variable_count, created_at
		FROM result_sets
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query result sets failed: %w", err)
	}
	defer rows.Close()

	out := []ResultSetSummary{}
	for rows.Next() {
		var it ResultSetSummary
		if err := rows.Scan(&it.ID, &it.Name, &it.MainVariable, &it.VariableCount, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result set failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result sets failed: %w", err)
	}
	return out, nil
}

// CountResultSets 结果集数量
func (s *Store) CountResultSets() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM result_sets").Scan(&n); err != nil {
		return 0, fmt.Errorf("count result sets failed: %w", err)
	}
	return n, nil
}

// SetMainVariable 修改结果集的默认主变量
func (s *Store) SetMainVariable(id, mainVariable string) error {
	res, err := s.db.Exec("UPDATE result_sets SET main_variable = ? WHERE id = ?", mainVariable, id)
	if err != nil {
		return fmt.Errorf("failed to update main variable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("result set %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteResultSet 删除结果集及其变量、标签
func (s *Store) DeleteResultSet(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec("DELETE FROM result_sets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete result set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("result set %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM variables WHERE result_set_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete variables: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM variable_labels WHERE result_set_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete labels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func emptyTriple() model.LabelTriple {
	return model.LabelTriple{
		Labels:   []string{},
		LabelsDE: []string{},
		Values:   []float64{},
	}
}
