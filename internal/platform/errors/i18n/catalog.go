// Package i18n renders user-facing error messages in the caller's language.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is the locale used when nothing better matches.
var BaseLocale = language.AmericanEnglish

type entry struct {
	// arg is the metadata key substituted into the message, if any.
	arg          string
	translations map[language.Tag]string
}

var entries = map[Code]entry{
	"NO_SUCH_EVENT": {
		arg: "name",
		translations: map[language.Tag]string{
			language.AmericanEnglish:     "No such event %q",
			language.BrazilianPortuguese: "Evento %q não existe",
		},
	},
	"NO_SUCH_RESPONSE": {
		arg: "name",
		translations: map[language.Tag]string{
			language.AmericanEnglish:     "No such response %q",
			language.BrazilianPortuguese: "Resposta %q não existe",
		},
	},
	"IRRELEVANT_EVENT": {
		arg: "name",
		translations: map[language.Tag]string{
			language.AmericanEnglish:     "Not listening for event %q",
			language.BrazilianPortuguese: "Nenhum ouvinte para o evento %q",
		},
	},
	"FORBIDDEN": {
		translations: map[language.Tag]string{
			language.AmericanEnglish:     "Not allowed to dispatch events at will",
			language.BrazilianPortuguese: "Não é permitido disparar eventos livremente",
		},
	},
	"INTERNAL": {
		translations: map[language.Tag]string{
			language.AmericanEnglish:     "Internal error",
			language.BrazilianPortuguese: "Erro interno",
		},
	},
}

// Catalog resolves locales and formats coded messages.
type Catalog struct {
	builder   *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
}

// Default is the process-wide catalog built from the embedded messages.
var Default = NewCatalog()

// NewCatalog builds a catalog from the embedded messages.
func NewCatalog() *Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(BaseLocale))
	seen := map[language.Tag]bool{BaseLocale: true}
	supported := []language.Tag{BaseLocale}
	for code, e := range entries {
		for tag, msg := range e.translations {
			_ = builder.SetString(tag, code, msg)
			if !seen[tag] {
				seen[tag] = true
				supported = append(supported, tag)
			}
		}
	}
	return &Catalog{
		builder:   builder,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}
}

// Resolve picks the best supported locale for an Accept-Language style value.
func (c *Catalog) Resolve(acceptLanguage string) language.Tag {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}
	return c.supported[index]
}

// Format renders the message for code in locale. Unknown codes render as the
// code itself.
func (c *Catalog) Format(locale language.Tag, code Code, metadata map[string]string) string {
	e, ok := entries[code]
	if !ok {
		return code
	}
	printer := message.NewPrinter(locale, message.Catalog(c.builder))
	if e.arg == "" {
		return printer.Sprintf(code)
	}
	return printer.Sprintf(code, metadata[e.arg])
}

// Localize resolves the locale and formats the message in one step. It
// returns the BCP 47 locale string alongside the message.
func (c *Catalog) Localize(acceptLanguage string, code Code, metadata map[string]string) (string, string) {
	locale := c.Resolve(acceptLanguage)
	return locale.String(), c.Format(locale, code, metadata)
}
