package naming

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveOutputName(t *testing.T) {
	t.Parallel()

	if got := DeriveOutputName("report.docx", "fr"); got != "report-fr.docx" {
		t.Fatalf("unexpected output name: %q", got)
	}
	if got := DeriveOutputName("notes", "es"); got != "notes-es" {
		t.Fatalf("unexpected extensionless name: %q", got)
	}
	if got := DeriveOutputName("archive.tar.gz", "de"); got != "archive.tar-de.gz" {
		t.Fatalf("expected split at last dot, got %q", got)
	}
}

func TestDeriveOutputNameDeterministic(t *testing.T) {
	t.Parallel()

	first := DeriveOutputName("quarterly summary.pptx", "pt-pt")
	second := DeriveOutputName("quarterly summary.pptx", "pt-pt")
	if first != second {
		t.Fatalf("expected identical output, got %q and %q", first, second)
	}
}

func TestDeriveOutputNameTruncatesLongBase(t *testing.T) {
	t.Parallel()

	base := strings.Repeat("a", 300)
	got := DeriveOutputName(base+".docx", "fr")
	if len(got) > MaxOutputNameLength {
		t.Fatalf("output name too long: %d characters", len(got))
	}
	if !strings.HasSuffix(got, "-fr.docx") {
		t.Fatalf("suffix and extension must survive truncation, got %q", got)
	}
	if len(got) != MaxOutputNameLength {
		t.Fatalf("expected truncation to the exact limit, got %d", len(got))
	}
}

func TestDeriveOutputNameKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// The "a" prefix shifts every two-byte rune onto an odd offset, so the
	// byte budget lands in the middle of a rune.
	base := "a" + strings.Repeat("é", 150)
	got := DeriveOutputName(base+".docx", "fr")
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
	if len(got) > MaxOutputNameLength {
		t.Fatalf("output name too long: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "-fr.docx") {
		t.Fatalf("suffix and extension must survive truncation, got %q", got)
	}
}

func TestDeriveOutputNameClampsBaseAtZero(t *testing.T) {
	t.Parallel()

	lang := strings.Repeat("x", MaxOutputNameLength+10)
	got := DeriveOutputName("a.docx", lang)
	if !strings.HasPrefix(got, "-"+lang) {
		t.Fatalf("expected empty base with suffix intact, got %q", got)
	}
	if !strings.HasSuffix(got, ".docx") {
		t.Fatalf("extension must be preserved, got %q", got)
	}
}
