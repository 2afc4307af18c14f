package exporter

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ddionrails/ddionrails-sub000/internal/locale"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

var (
	// ErrNilResult 没有可导出的对齐结果
	ErrNilResult = errors.New("nil aligned result")
	// ErrInvalidSheetName 工作表名称不符合 Excel 规则
	ErrInvalidSheetName = errors.New("invalid sheet name")
)

const (
	maxSheetNameLength      = 31
	invalidSheetNameSymbols = `:\/?*[]`
)

// ValidateSheetName 校验并返回去掉首尾空白的工作表名称
func ValidateSheetName(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" || len([]rune(v)) > maxSheetNameLength || strings.ContainsAny(v, invalidSheetNameSymbols) {
		return "", fmt.Errorf("%q: %w", v, ErrInvalidSheetName)
	}
	return v, nil
}

// Options 导出选项
type Options struct {
	SheetName string
	Language  locale.Language
	Progress  func(ProgressEvent)
}

// 表头文字
var headerText = map[locale.Language][2]string{
	locale.English: {"Category", "Period"},
	locale.German:  {"Kategorie", "Zeitraum"},
}

// Build 把对齐结果写成工作簿
//
// 布局：第 1 行为变量 ID，第 2 行为时期，其后每行一个规范类别；
// 第 1 列为所选语言的类别标签，未报告的类别留空。
func Build(res *model.AlignedResult, opts Options) (*excelize.File, error) {
	if res == nil {
		return nil, ErrNilResult
	}
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = "Labels"
	}
	lang := opts.Language
	if lang != locale.German {
		lang = locale.English
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	reportProgress(opts.Progress, 5, "创建工作簿")

	if err := writeGrid(f, sheet, res, lang, opts.Progress); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := styleSheet(f, sheet, len(res.Variables)); err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 100, "导出完成")
	return f, nil
}

func writeGrid(f *excelize.File, sheet string, res *model.AlignedResult, lang locale.Language, progress func(ProgressEvent)) error {
	header := headerText[lang]

	top := make([]interface{}, 0, len(res.Variables)+1)
	periods := make([]interface{}, 0, len(res.Variables)+1)
	top = append(top, header[0])
	periods = append(periods, header[1])
	for _, v := range res.Variables {
		top = append(top, v)
		periods = append(periods, res.Periods[v])
	}
	if err := f.SetSheetRow(sheet, "A1", &top); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &periods); err != nil {
		return fmt.Errorf("write periods: %w", err)
	}
	reportProgress(progress, 10, "写入表头")

	labels := locale.Labels(res, lang)
	total := len(labels)
	for i, label := range labels {
		row := make([]interface{}, 0, len(res.Variables)+1)
		row = append(row, label)
		for _, v := range res.Variables {
			values := res.Values[v]
			if i < len(values) && values[i] != nil {
				row = append(row, *values[i])
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+3, err)
		}
		reportProgress(progress, 10+80*(i+1)/total, "写入类别")
	}
	return nil
}

func styleSheet(f *excelize.File, sheet string, variableCount int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 2, headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	if variableCount > 0 {
		last, err := excelize.ColumnNumberToName(variableCount + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "B", last, 18); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      2,
		TopLeftCell: "B3",
		ActivePane:  "bottomRight",
	})
}

// WriteXLSX 导出到 w
func WriteXLSX(w io.Writer, res *model.AlignedResult, opts Options) error {
	f, err := Build(res, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ContentDisposition 构造下载文件头，兼容非 ASCII 文件名
func ContentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fallback, url.PathEscape(filename))
}
