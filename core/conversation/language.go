package conversation

import "strings"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
	LanguageDutch   Language = "nl"

	DefaultLanguage = LanguageEnglish
)

// ParseLanguage accepts codes and common names ("turkish", "NL", "Nederlands").
func ParseLanguage(value string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "en", "english", "eng":
		return LanguageEnglish, true
	case "tr", "turkish", "türkçe", "turkce":
		return LanguageTurkish, true
	case "nl", "du", "dutch", "nederlands":
		return LanguageDutch, true
	}
	return "", false
}
