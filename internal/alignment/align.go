package alignment

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// Align 对齐结果集中各变量的类别，并生成每个变量的取值行
//
// 流程固定为：过滤缺失值 -> 取出主变量 -> 以主变量为种子建类别空间 ->
// 按列表顺序扩展其余变量 -> 为每个变量（主变量最后）生成取值行。
// 同一变量 ID 出现多次时以最后一条为准，占据首次出现的位置，前面的条目不参与对齐。
func Align(rs model.ResultSet, mainID string) (*model.AlignedResult, error) {
	// 1. 校验、过滤缺失值并按变量 ID 去重
	filtered := make([]model.VariableLabelSet, 0, len(rs.Results))
	index := make(map[string]int, len(rs.Results))
	for _, set := range rs.Results {
		if err := Validate(set); err != nil {
			return nil, err
		}
		if i, ok := index[set.Variable]; ok {
			filtered[i] = FilterMissing(set)
			continue
		}
		index[set.Variable] = len(filtered)
		filtered = append(filtered, FilterMissing(set))
	}

	// 2. 取出主变量
	mainIdx, ok := index[mainID]
	if !ok {
		return nil, fmt.Errorf("variable %q: %w", mainID, ErrMainVariableNotFound)
	}
	main := filtered[mainIdx]

	ordered := make([]model.VariableLabelSet, 0, len(filtered))
	ordered = append(ordered, filtered[:mainIdx]...)
	ordered = append(ordered, filtered[mainIdx+1:]...)
	ordered = append(ordered, main)

	// 3. 种子
	space := NewLabelSpace(main)

	// 4. 扩展；主变量排在最后，扩展结果为空
	for _, set := range ordered {
		space.Extend(set)
	}

	// 5. 生成取值行
	result := &model.AlignedResult{
		Labels:    space.Labels(),
		LabelsDE:  space.LabelsDE(),
		Periods:   make(map[string]string, len(ordered)),
		Values:    make(map[string][]*float64, len(ordered)),
		Variables: make([]string, 0, len(ordered)),
	}
	for _, set := range ordered {
		result.Variables = append(result.Variables, set.Variable)
		result.Periods[set.Variable] = set.Period
		result.Values[set.Variable] = BuildRow(space, set)
	}

	return result, nil
}

// Stats 一次对齐的统计信息
type Stats struct {
	MainVariable string
	Variables    int
	Labels       int
	Duration     time.Duration
}

// Observer 对齐结果观察者（指标采集等）
type Observer interface {
	ObserveAlignment(stats Stats, err error)
}

// Aligner 在 Align 外面加上日志与观察者
type Aligner struct {
	logger   *zap.Logger
	observer Observer
}

// NewAligner 创建对齐器，logger / observer 均可为空
func NewAligner(logger *zap.Logger, observer Observer) *Aligner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aligner{logger: logger, observer: observer}
}

// Align 执行对齐
func (a *Aligner) Align(rs model.ResultSet, mainID string) (*model.AlignedResult, error) {
	start := time.Now()
	res, err := Align(rs, mainID)

	stats := Stats{
		MainVariable: mainID,
		Variables:    len(rs.Results),
		Duration:     time.Since(start),
	}
	if res != nil {
		stats.Variables = len(res.Variables)
		stats.Labels = len(res.Labels)
	}
	if a.observer != nil {
		a.observer.ObserveAlignment(stats, err)
	}

	if err != nil {
		a.logger.Warn("alignment failed",
			zap.String("main", mainID),
			zap.Int("variables", stats.Variables),
			zap.Error(err))
		return nil, err
	}
	a.logger.Debug("alignment done",
		zap.String("main", mainID),
		zap.Int("variables", stats.Variables),
		zap.Int("labels", stats.Labels),
		zap.Duration("duration", stats.Duration))
	return res, nil
}
