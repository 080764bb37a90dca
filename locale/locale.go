// Package locale provides message catalogs, read from PO files, for the "t"
// template filter.
package locale

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// FileOpener defines an abstraction for opening a po file given a locale
type FileOpener interface {
	// Open returns ReadCloser for the po file indicated by locale. It returns
	// nil if the file does not exist
	Open(locale string) (io.ReadCloser, error)
}

// Provider holds the catalogs of several locales.
type Provider struct {
	catalogs map[string]*Catalog // by canonical BCP 47 tag
	tags     []language.Tag
}

// Load reads the catalog of each of the given locales.  When a locale has no
// file of its own, the file of a more general locale is used, e.g. "fr" for
// "fr_CA".  Locales with no file at all are skipped.
func Load(opener FileOpener, locales []string) (*Provider, error) {
	var prov = &Provider{catalogs: make(map[string]*Catalog)}
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
		var r io.ReadCloser
		for _, candidate := range append([]string{locale}, tagNames(fallbacks(tag))...) {
			if r, err = opener.Open(candidate); err != nil {
				return nil, err
			}
			if r != nil {
				break
			}
		}
		if r == nil {
			continue
		}

		catalog, err := Parse(tag.String(), r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
		prov.catalogs[tag.String()] = catalog
		prov.tags = append(prov.tags, tag)
	}
	return prov, nil
}

// dirOpener is a FileOpener rooted at a directory of a file system.
type dirOpener struct {
	fsys fs.FS
	dir  string
}

func (o dirOpener) Open(locale string) (io.ReadCloser, error) {
	switch f, err := o.fsys.Open(path.Join(o.dir, locale+".po")); {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return f, nil
	}
}

// Dir returns a Provider that takes translations from the given directory of
// fsys.  For example, if dir is "locales", po files should be of the form:
//
//	locales/<lang>.po
//	locales/<lang>_<territory>.po
func Dir(fsys fs.FS, dir string) (*Provider, error) {
	var entries, err = fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var locales []string
	for _, entry := range entries {
		var name = entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, ".po") {
			locales = append(locales, strings.TrimSuffix(name, ".po"))
		}
	}
	return Load(dirOpener{fsys, dir}, locales)
}

// Catalog returns the messages for the given locale, falling back to more
// general locales.  It returns nil if none could be found.
func (p *Provider) Catalog(locale string) *Catalog {
	if p == nil {
		return nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil
	}
	for _, fb := range fallbacks(tag) {
		if catalog, ok := p.catalogs[fb.String()]; ok {
			return catalog
		}
	}
	return nil
}

// Match returns the catalog that best serves the given preferences, each of
// which may be a locale or an Accept-Language header value.  It returns nil
// if no catalog matches.
func (p *Provider) Match(preferences ...string) *Catalog {
	if p == nil || len(p.tags) == 0 {
		return nil
	}
	var desired []language.Tag
	for _, pref := range preferences {
		tags, _, err := language.ParseAcceptLanguage(strings.ReplaceAll(pref, "_", "-"))
		if err != nil {
			continue
		}
		desired = append(desired, tags...)
	}
	if len(desired) == 0 {
		return nil
	}
	var _, index, confidence = language.NewMatcher(p.tags).Match(desired...)
	if confidence == language.No {
		return nil
	}
	return p.catalogs[p.tags[index].String()]
}

// Locales returns the canonical tags of the loaded catalogs, sorted.
func (p *Provider) Locales() []string {
	if p == nil {
		return nil
	}
	var locales = make([]string, 0, len(p.catalogs))
	for k := range p.catalogs {
		locales = append(locales, k)
	}
	sort.Strings(locales)
	return locales
}

func tagNames(tags []language.Tag) []string {
	var names = make([]string, len(tags))
	for i, tag := range tags {
		names[i] = strings.ReplaceAll(tag.String(), "-", "_")
	}
	return names
}
