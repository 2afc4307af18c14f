package importer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// ErrHeaderNotFound 没有任何 Sheet 的表头包含 variable / label / value
var ErrHeaderNotFound = errors.New("label sheet header not found")

// 列字段
const (
	colVariable = "variable"
	colDataset  = "dataset"
	colPeriod   = "period"
	colLabel    = "label"
	colLabelDE  = "label_de"
	colValue    = "value"
)

// 表头别名（规范化后）
var headerAliases = map[string]string{
	"variable":    colVariable,
	"variable_id": colVariable,
	"variableid":  colVariable,
	"dataset":     colDataset,
	"period":      colPeriod,
	"label":       colLabel,
	"labels":      colLabel,
	"label_en":    colLabel,
	"label_de":    colLabelDE,
	"labels_de":   colLabelDE,
	"value":       colValue,
	"values":      colValue,
	"frequency":   colValue,
	"count":       colValue,
}

var headerSpace = regexp.MustCompile(`[\s\-]+`)

// normalizeHeader 规范化表头：小写、去首尾空格、空白和连字符统一为下划线
func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return headerSpace.ReplaceAllString(name, "_")
}

// mapHeader 识别表头，返回字段 -> 列下标
func mapHeader(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, h := range header {
		field, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := cols[field]; dup {
			continue
		}
		cols[field] = idx
	}
	return cols
}

func hasRequiredColumns(cols map[string]int) bool {
	for _, f := range []string{colVariable, colLabel, colValue} {
		if _, ok := cols[f]; !ok {
			return false
		}
	}
	return true
}

// decodeXLSX 读取长表格式：每行一个类别，同一变量的行按首次出现顺序归组
func decodeXLSX(r io.Reader) (model.ResultSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.ResultSet{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return model.ResultSet{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		cols := mapHeader(rows[0])
		if !hasRequiredColumns(cols) {
			continue
		}
		return parseLabelRows(sheet, rows[1:], cols)
	}

	return model.ResultSet{}, ErrHeaderNotFound
}

func parseLabelRows(sheet string, rows [][]string, cols map[string]int) (model.ResultSet, error) {
	cell := func(row []string, field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rs := model.ResultSet{Results: []model.VariableLabelSet{}}
	index := make(map[string]int)

	for i, row := range rows {
		rowNo := i + 2 // 表头占第 1 行
		variable := cell(row, colVariable)
		if variable == "" {
			if isBlankRow(row) {
				continue
			}
			return model.ResultSet{}, fmt.Errorf("sheet %s row %d: %w", sheet, rowNo, ErrEmptyVariableID)
		}

		raw := cell(row, colValue)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return model.ResultSet{}, fmt.Errorf("sheet %s row %d: invalid value %q", sheet, rowNo, raw)
		}

		label := cell(row, colLabel)
		labelDE := label
		if _, ok := cols[colLabelDE]; ok {
			labelDE = cell(row, colLabelDE)
		}

		pos, ok := index[variable]
		if !ok {
			pos = len(rs.Results)
			index[variable] = pos
			rs.Results = append(rs.Results, model.VariableLabelSet{
				Variable: variable,
				Dataset:  cell(row, colDataset),
				Period:   cell(row, colPeriod),
				Labels: model.LabelTriple{
					Labels:   []string{},
					LabelsDE: []string{},
					Values:   []float64{},
				},
			})
		}
		t := &rs.Results[pos].Labels
		t.Labels = append(t.Labels, label)
		t.LabelsDE = append(t.LabelsDE, labelDE)
		t.Values = append(t.Values, value)
	}

	return rs, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
