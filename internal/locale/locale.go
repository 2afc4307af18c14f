package locale

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/ddionrails/ddionrails-sub000/internal/model"
)

// Language 标签列语言
type Language string

const (
	English Language = "en"
	German  Language = "de"
)

var (
	supported = []Language{English, German}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.German})
)

// Parse 解析显式指定的语言，不支持时返回 false
func Parse(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for _, l := range supported {
		if base.String() == string(l) {
			return l, true
		}
	}
	return "", false
}

// Match 选择标签列语言：显式参数优先，其次 Accept-Language，最后 fallback
func Match(explicit, acceptLanguage string, fallback Language) Language {
	if l, ok := Parse(explicit); ok {
		return l
	}
	if strings.TrimSpace(acceptLanguage) != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return supported[idx]
			}
		}
	}
	if l, ok := Parse(string(fallback)); ok {
		return l
	}
	return English
}

// Labels 返回指定语言的规范标签
func Labels(res *model.AlignedResult, lang Language) []string {
	if lang == German {
		return res.LabelsDE
	}
	return res.Labels
}
