package alignment

import "errors"

var (
	// ErrLengthMismatch labels / labels_de / values 长度不一致
	ErrLengthMismatch = errors.New("label triple length mismatch")
	// ErrMainVariableNotFound 结果集中没有主变量
	ErrMainVariableNotFound = errors.New("main variable not found")
	// ErrNonFiniteValue 取值为 NaN 或 ±Inf
	ErrNonFiniteValue = errors.New("non-finite value")
)
