package alignment

import "github.com/ddionrails/ddionrails-sub000/internal/model"

// BuildRow 把变量的取值投影到规范类别空间上
// 未报告的类别为 nil；找不到位置的标签直接丢弃（说明类别空间在扫描该变量前就定型了）
func BuildRow(space *LabelSpace, set model.VariableLabelSet) []*float64 {
	row := make([]*float64, space.Len())
	for i, label := range set.Labels.Labels {
		pos, ok := space.Position(label)
		if !ok {
			continue
		}
		v := set.Labels.Values[i]
		row[pos] = &v
	}
	return row
}
