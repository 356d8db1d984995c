package translation

import "testing"

func TestIsSupportedLanguage(t *testing.T) {
	t.Parallel()

	if !IsSupportedLanguage("fr") {
		t.Fatalf("expected fr to be supported")
	}
	if !IsSupportedLanguage("ZH-Hant") {
		t.Fatalf("language matching must be case-insensitive")
	}
	if !IsSupportedLanguage("pt_PT") {
		t.Fatalf("underscore separators must normalize")
	}
	if IsSupportedLanguage("xx") {
		t.Fatalf("expected xx to be rejected")
	}
	if IsSupportedLanguage("") {
		t.Fatalf("expected blank code to be rejected")
	}
}

func TestLanguageOptions(t *testing.T) {
	t.Parallel()

	options := LanguageOptions()
	if len(options) != len(targetLanguageNames) {
		t.Fatalf("expected %d options, got %d", len(targetLanguageNames), len(options))
	}
	for i := 1; i < len(options); i++ {
		if options[i-1].Code >= options[i].Code {
			t.Fatalf("options are not sorted at index %d", i)
		}
	}
	if got := LanguageName("fr"); got != "French" {
		t.Fatalf("unexpected language name: %q", got)
	}
}
