package alignment

import "github.com/ddionrails/ddionrails-sub000/internal/model"

// LabelSpace 规范类别空间：有序、去重的英文标签键及对应的德文标签
//
// 位置按插入顺序分配（从 0 开始），分配后不再变化；去重键为 NormalizeLabel 后的英文标签。
type LabelSpace struct {
	keys  []string
	de    []string
	index map[string]int
}

// NewLabelSpace 以主变量（已过滤缺失值）为种子构建类别空间
// 同一变量内重复的标签以第一次出现为准
func NewLabelSpace(main model.VariableLabelSet) *LabelSpace {
	s := &LabelSpace{
		keys:  make([]string, 0, main.Labels.Len()),
		de:    make([]string, 0, main.Labels.Len()),
		index: make(map[string]int, main.Labels.Len()),
	}
	s.Extend(main)
	return s
}

// Extend 追加变量中尚未出现的标签，返回新增数量
// 已存在的标签保持原位置，德文标签也不覆盖；对主变量再次调用是空操作
func (s *LabelSpace) Extend(set model.VariableLabelSet) int {
	added := 0
	for i, label := range set.Labels.Labels {
		key := NormalizeLabel(label)
		if _, ok := s.index[key]; ok {
			continue
		}
		s.index[key] = len(s.keys)
		s.keys = append(s.keys, key)
		s.de = append(s.de, set.Labels.LabelsDE[i])
		added++
	}
	return added
}

// Position 查找标签的规范位置（入参会先做规范化）
func (s *LabelSpace) Position(label string) (int, bool) {
	pos, ok := s.index[NormalizeLabel(label)]
	return pos, ok
}

// Len 类别数
func (s *LabelSpace) Len() int {
	return len(s.keys)
}

// Labels 返回英文标签副本
func (s *LabelSpace) Labels() []string {
	return append([]string{}, s.keys...)
}

// LabelsDE 返回德文标签副本，与 Labels 同序
func (s *LabelSpace) LabelsDE() []string {
	return append([]string{}, s.de...)
}
