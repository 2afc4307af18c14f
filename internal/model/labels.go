package model

// LabelTriple 一个变量的取值标签三元组（英文标签、德文标签、数值），三者按下标一一对应
type LabelTriple struct {
	Labels   []string  `json:"labels" yaml:"labels"`
	LabelsDE []string  `json:"labels_de" yaml:"labels_de"`
	Values   []float64 `json:"values" yaml:"values"`
}

// Len 返回类别数（以英文标签为准）
func (t LabelTriple) Len() int {
	return len(t.Labels)
}

// VariableLabelSet 单个变量的标签元数据
type VariableLabelSet struct {
	Variable string      `json:"variable" yaml:"variable"`
	Dataset  string      `json:"dataset" yaml:"dataset"`
	Period   string      `json:"period" yaml:"period"`
	Labels   LabelTriple `json:"labels" yaml:"labels"`
}

// ResultSet 外部接口返回的原始结果集
type ResultSet struct {
	Results []VariableLabelSet `json:"results" yaml:"results"`
}

// Has 判断结果集中是否包含指定变量
func (rs ResultSet) Has(variable string) bool {
	for _, r := range rs.Results {
		if r.Variable == variable {
			return true
		}
	}
	return false
}

// AlignedResult 对齐后的输出，交给渲染端使用
//
// Values 中的 nil 表示该变量没有报告此类别，与报告值为 0 不同。
// Variables 给出行的输出顺序：原始顺序，主变量放在最后。
type AlignedResult struct {
	Labels    []string              `json:"labels"`
	LabelsDE  []string              `json:"labels_de"`
	Periods   map[string]string     `json:"periods"`
	Values    map[string][]*float64 `json:"values"`
	Variables []string              `json:"variables"`
}
