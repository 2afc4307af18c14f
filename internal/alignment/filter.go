package alignment

import (
	"fmt"
	"math"

	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// Validate 校验三元组长度一致且取值均为有限数
func Validate(set model.VariableLabelSet) error {
	t := set.Labels
	if len(t.Labels) != len(t.LabelsDE) || len(t.Labels) != len(t.Values) {
		return fmt.Errorf("variable %q: %w (labels=%d labels_de=%d values=%d)",
			set.Variable, ErrLengthMismatch, len(t.Labels), len(t.LabelsDE), len(t.Values))
	}
	for i, v := range t.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("variable %q values[%d]: %w (%v)", set.Variable, i, ErrNonFiniteValue, v)
		}
	}
	return nil
}

// FilterMissing 去掉缺失值类别（values[i] <= 0），三个序列同步过滤
// 返回新的切片，不修改入参；调用前需先通过 Validate
func FilterMissing(set model.VariableLabelSet) model.VariableLabelSet {
	src := set.Labels
	out := model.LabelTriple{
		Labels:   make([]string, 0, len(src.Values)),
		LabelsDE: make([]string, 0, len(src.Values)),
		Values:   make([]float64, 0, len(src.Values)),
	}
	for i, v := range src.Values {
		if !(v > 0) {
			continue
		}
		out.Labels = append(out.Labels, src.Labels[i])
		out.LabelsDE = append(out.LabelsDE, src.LabelsDE[i])
		out.Values = append(out.Values, v)
	}

	set.Labels = out
	return set
}
