package picker

import (
	"strings"

	"golang.org/x/text/language"
)

// MonthNames holds the standalone month names, January first.
type MonthNames [12]string

var (
	English = MonthNames{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	Spanish = MonthNames{"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

var (
	supportedLocales = []language.Tag{language.English, language.Spanish}
	localeMatcher    = language.NewMatcher(supportedLocales)
	monthsByLocale   = []MonthNames{English, Spanish}
)

// MonthsFor returns the month names for the closest supported locale.
// Unknown or malformed locales fall back to English.
func MonthsFor(locale string) MonthNames {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return English
	}
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return English
	}
	return monthsByLocale[index]
}

// Name returns the name of month (1-12), or "" when out of range.
func (m MonthNames) Name(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return m[month-1]
}

// Index returns the month number (1-12) for name, case-insensitively,
// or 0 when name is not a month.
func (m MonthNames) Index(name string) int {
	for i, n := range m {
		if strings.EqualFold(n, name) {
			return i + 1
		}
	}
	return 0
}
