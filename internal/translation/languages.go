package translation

import (
	"sort"

	"github.com/PlumyCat/trad-bot-src/internal/language"
)

type LanguageOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Target languages accepted by the batch document translation service.
var targetLanguageNames = map[string]string{
	"af":       "Afrikaans",
	"ar":       "Arabic",
	"bg":       "Bulgarian",
	"bn":       "Bengali",
	"bs":       "Bosnian",
	"ca":       "Catalan",
	"cs":       "Czech",
	"cy":       "Welsh",
	"da":       "Danish",
	"de":       "German",
	"el":       "Greek",
	"en":       "English",
	"es":       "Spanish",
	"et":       "Estonian",
	"fa":       "Persian",
	"fi":       "Finnish",
	"fr":       "French",
	"ga":       "Irish",
	"gu":       "Gujarati",
	"he":       "Hebrew",
	"hi":       "Hindi",
	"hr":       "Croatian",
	"hu":       "Hungarian",
	"id":       "Indonesian",
	"is":       "Icelandic",
	"it":       "Italian",
	"ja":       "Japanese",
	"kn":       "Kannada",
	"ko":       "Korean",
	"lt":       "Lithuanian",
	"lv":       "Latvian",
	"ml":       "Malayalam",
	"mr":       "Marathi",
	"ms":       "Malay",
	"mt":       "Maltese",
	"nb":       "Norwegian",
	"nl":       "Dutch",
	"pa":       "Punjabi",
	"pl":       "Polish",
	"pt-pt":    "Portuguese",
	"ro":       "Romanian",
	"ru":       "Russian",
	"sk":       "Slovak",
	"sl":       "Slovenian",
	"sv":       "Swedish",
	"ta":       "Tamil",
	"te":       "Telugu",
	"th":       "Thai",
	"tr":       "Turkish",
	"uk":       "Ukrainian",
	"ur":       "Urdu",
	"vi":       "Vietnamese",
	"zh":       "Chinese (Simplified)",
	"zh-hant":  "Chinese (Traditional)",
	"tlh-latn": "Klingon (Latin)",
}

// IsSupportedLanguage reports whether code (any casing, "-" or "_"
// separators) is an accepted target language.
func IsSupportedLanguage(code string) bool {
	_, ok := targetLanguageNames[language.NormalizeTag(code)]
	return ok
}

// LanguageName returns the English display name for a supported code.
func LanguageName(code string) string {
	return targetLanguageNames[language.NormalizeTag(code)]
}

// LanguageOptions lists every supported target language sorted by code.
func LanguageOptions() []LanguageOption {
	codes := make([]string, 0, len(targetLanguageNames))
	for code := range targetLanguageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	options := make([]LanguageOption, 0, len(codes))
	for _, code := range codes {
		options = append(options, LanguageOption{
			Code:  code,
			Label: targetLanguageNames[code],
		})
	}
	return options
}
