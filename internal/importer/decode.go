package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ddionrails/ddionrails-sub000/internal/alignment"
	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// Format 输入文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnsupportedFormat 不支持的文件格式
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEmptyVariableID 变量 ID 为空
	ErrEmptyVariableID = errors.New("empty variable id")
	// ErrDecode 文件内容无法解析
	ErrDecode = errors.New("decode result set")
)

// FormatFromFilename 根据扩展名判断格式
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

// ParseFormat 解析格式名（大小写不敏感）
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
	}
}

// Decode 按格式解码结果集并校验
func Decode(r io.Reader, format Format) (model.ResultSet, error) {
	var (
		rs  model.ResultSet
		err error
	)
	switch format {
	case FormatJSON:
		rs, err = decodeJSON(r)
	case FormatYAML:
		rs, err = decodeYAML(r)
	case FormatXLSX:
		rs, err = decodeXLSX(r)
	default:
		return model.ResultSet{}, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		return model.ResultSet{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if err := Validate(rs); err != nil {
		return model.ResultSet{}, err
	}
	return rs, nil
}

// Validate 校验结果集：变量 ID 非空，标签三元组长度一致且取值有限
func Validate(rs model.ResultSet) error {
	for i, set := range rs.Results {
		if strings.TrimSpace(set.Variable) == "" {
			return fmt.Errorf("results[%d]: %w", i, ErrEmptyVariableID)
		}
		if err := alignment.Validate(set); err != nil {
			return fmt.Errorf("results[%d]: %w", i, err)
		}
	}
	return nil
}

func decodeJSON(r io.Reader) (model.ResultSet, error) {
	var rs model.ResultSet
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rs); err != nil {
		return model.ResultSet{}, fmt.Errorf("decode json: %w", err)
	}
	normalizeNil(&rs)
	return rs, nil
}

func decodeYAML(r io.Reader) (model.ResultSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.ResultSet{}, fmt.Errorf("read yaml: %w", err)
	}
	var rs model.ResultSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return model.ResultSet{}, fmt.Errorf("decode yaml: %w", err)
	}
	normalizeNil(&rs)
	return rs, nil
}

// normalizeNil 把缺省的切片补成空切片，保证输出 JSON 为 [] 而不是 null
func normalizeNil(rs *model.ResultSet) {
	if rs.Results == nil {
		rs.Results = []model.VariableLabelSet{}
	}
	for i := range rs.Results {
		t := &rs.Results[i].Labels
		if t.Labels == nil {
			t.Labels = []string{}
		}
		if t.LabelsDE == nil {
			t.LabelsDE = []string{}
		}
		if t.Values == nil {
			t.Values = []float64{}
		}
	}
}
