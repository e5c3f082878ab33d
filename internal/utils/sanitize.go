package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxUnescapeRounds ограничивает раскрытие вложенных сущностей (&amp;lt; и т.п.).
const maxUnescapeRounds = 4

// Sanitizer вычищает HTML из произвольного текста пользователя (имя и т.п.).
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text убирает теги (содержимое script/style тоже). Сущности раскрываются до
// очистки, результат остаётся HTML-экранированным: & хранится как &amp;.
func (s *Sanitizer) Text(in string) string {
	for i := 0; i < maxUnescapeRounds; i++ {
		un := html.UnescapeString(in)
		if un == in {
			break
		}
		in = un
	}
	return strings.TrimSpace(s.policy.Sanitize(in))
}
