package content

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var languageTagRe = regexp.MustCompile(`^[A-Za-z]{2,3}([-_][A-Za-z0-9]{2,8})*$`)

// NormalizeLanguage turns BCP 47 tags such as "fi" or "pt-BR" into English
// language names ("Finnish", "Brazilian Portuguese"). Anything else is
// returned trimmed, since the target language is free text.
func NormalizeLanguage(s string) string {
	s = strings.TrimSpace(s)
	if !languageTagRe.MatchString(s) {
		return s
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return s
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return s
}
