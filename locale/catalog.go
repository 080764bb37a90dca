package locale

import (
	"fmt"
	"io"

	"github.com/robfig/gettext/po"
	"golang.org/x/text/language"
)

// contextSeparator joins a message context to its id, as gettext does.
const contextSeparator = "\x04"

// Catalog is the set of messages available in a particular locale.  A nil
// Catalog returns the source text for every message.
type Catalog struct {
	locale    string
	messages  map[string][]string // msgstr forms by msgid, prefixed by any context
	pluralize po.PluralSelector
}

// Parse reads a PO file into a catalog for the given locale.  The plural
// rule comes from the file's Plural-Forms header, or else from the locale's
// language.
func Parse(locale string, r io.Reader) (*Catalog, error) {
	file, err := po.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse po: %w", err)
	}
	var pluralize = file.Pluralize
	if pluralize == nil {
		pluralize = selectorFor(locale)
	}

	var messages = make(map[string][]string, len(file.Messages))
	for _, msg := range file.Messages {
		if msg.Id == "" {
			continue // header
		}
		var key = msg.Id
		if msg.Ctxt != "" {
			key = msg.Ctxt + contextSeparator + msg.Id
		}
		messages[key] = msg.Str
	}
	return &Catalog{locale, messages, pluralize}, nil
}

func selectorFor(locale string) po.PluralSelector {
	if tag, err := language.Parse(locale); err == nil {
		var base, _ = tag.Base()
		if sel := po.PluralSelectorForLanguage(base.String()); sel != nil {
			return sel
		}
	}
	return func(n int) int {
		if n == 1 {
			return 0
		}
		return 1
	}
}

// Locale returns the locale of the catalog.
func (c *Catalog) Locale() string {
	if c == nil {
		return ""
	}
	return c.locale
}

// Len returns the number of messages in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.messages)
}

// Gettext returns the translation of msgid, or msgid itself if there is none.
func (c *Catalog) Gettext(msgid string) string {
	return c.lookup(msgid, msgid, "", 1)
}

// PGettext is Gettext for a message disambiguated by a context.
func (c *Catalog) PGettext(context, msgid string) string {
	return c.lookup(context+contextSeparator+msgid, msgid, "", 1)
}

// NGettext returns the plural form of the translation of msgid for n.
// Without a translation, msgid is used when n is 1 and plural otherwise.
func (c *Catalog) NGettext(msgid, plural string, n int) string {
	return c.lookup(msgid, msgid, plural, n)
}

func (c *Catalog) lookup(key, msgid, plural string, n int) string {
	var source = msgid
	if plural != "" && n != 1 {
		source = plural
	}
	if c == nil {
		return source
	}
	var forms = c.messages[key]
	var i = 0
	if plural != "" {
		i = c.pluralize(n)
	}
	if i < 0 || i >= len(forms) || forms[i] == "" {
		return source
	}
	return forms[i]
}
