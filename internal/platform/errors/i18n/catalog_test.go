package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestResolveFallsBackToBase(t *testing.T) {
	c := NewCatalog()
	if got := c.Resolve(""); got != BaseLocale {
		t.Fatalf("expected base locale for empty header, got %v", got)
	}
	if got := c.Resolve("!!!"); got != BaseLocale {
		t.Fatalf("expected base locale for malformed header, got %v", got)
	}
	if got := c.Resolve("ja-JP"); got != BaseLocale {
		t.Fatalf("expected base locale for unsupported language, got %v", got)
	}
}

func TestResolvePrefersSupportedLanguage(t *testing.T) {
	c := NewCatalog()
	if got := c.Resolve("pt-BR,pt;q=0.9,en;q=0.5"); got != language.BrazilianPortuguese {
		t.Fatalf("expected pt-BR, got %v", got)
	}
}

func TestFormatSubstitutesName(t *testing.T) {
	c := NewCatalog()
	got := c.Format(BaseLocale, "NO_SUCH_EVENT", map[string]string{"name": "intro"})
	if got != `No such event "intro"` {
		t.Fatalf("unexpected message %q", got)
	}
	got = c.Format(language.BrazilianPortuguese, "IRRELEVANT_EVENT", map[string]string{"name": "x"})
	if got != `Nenhum ouvinte para o evento "x"` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFormatWithoutArgument(t *testing.T) {
	c := NewCatalog()
	if got := c.Format(BaseLocale, "FORBIDDEN", nil); got != "Not allowed to dispatch events at will" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFormatUnknownCode(t *testing.T) {
	c := NewCatalog()
	if got := c.Format(BaseLocale, "MYSTERY", nil); got != "MYSTERY" {
		t.Fatalf("expected code fallback, got %q", got)
	}
}

func TestLocalizeReturnsLocaleString(t *testing.T) {
	locale, msg := Default.Localize("en-US", "INTERNAL", nil)
	if locale != "en-US" {
		t.Fatalf("expected en-US, got %q", locale)
	}
	if msg != "Internal error" {
		t.Fatalf("unexpected message %q", msg)
	}
}
