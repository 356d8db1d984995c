// Package naming derives deterministic object names for translation artifacts.
package naming

import (
	"strings"
	"unicode/utf8"
)

// MaxOutputNameLength caps derived output names. The batch translation
// backend rejects longer target names.
const MaxOutputNameLength = 200

// DeriveOutputName builds the output object name for a translated document:
// the input base name, a "-<language>" suffix and the original extension.
// When the combined name would exceed MaxOutputNameLength the base is
// truncated from the end just enough to fit; the suffix and extension are
// always preserved. The function is pure: identical inputs always produce
// byte-identical output.
func DeriveOutputName(inputName, targetLanguage string) string {
	base := inputName
	ext := ""
	if dot := strings.LastIndexByte(inputName, '.'); dot >= 0 {
		base = inputName[:dot]
		ext = inputName[dot+1:]
	}

	suffix := "-" + targetLanguage

	budget := MaxOutputNameLength - len(suffix)
	if ext != "" {
		budget -= len(ext) + 1
	}
	// A pathological language code or extension can exhaust the budget on
	// its own; clamp so the base is simply dropped rather than panicking.
	if budget < 0 {
		budget = 0
	}
	if len(base) > budget {
		// Never split a multi-byte rune; back off to the last rune start so
		// the truncated base stays valid UTF-8.
		cut := budget
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}
		base = base[:cut]
	}

	if ext == "" {
		return base + suffix
	}
	return base + suffix + "." + ext
}
