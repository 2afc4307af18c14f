package alignment

import "regexp"

// 一个或多个 "[代码] " 前缀
var codePrefixPattern = regexp.MustCompile(`^(?:\[[^\]]*\] )+`)

// NormalizeLabel 去掉标签前面的方括号代码，得到可比较的标签键
// 例如: "[1] Yes" -> "Yes" / "[-1] Missing" -> "Missing"
//
// 连续出现的前缀会一并去掉，保证 NormalizeLabel(NormalizeLabel(x)) == NormalizeLabel(x)。
func NormalizeLabel(label string) string {
	loc := codePrefixPattern.FindStringIndex(label)
	if loc == nil {
		return label
	}
	return label[loc[1]:]
}
