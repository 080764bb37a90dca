package views

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultExtensions are the file extensions of view templates.
var DefaultExtensions = []string{".liquid", ".fluid"}

// Application identifies the hosting application.  Its own templates, found
// in FS, form the base of every aggregation.
type Application struct {
	Name       string
	FS         fs.FS    // template source location
	Extensions []string // template file extensions; nil means DefaultExtensions
}

func (app Application) extensions() []string {
	if len(app.Extensions) == 0 {
		return DefaultExtensions
	}
	return app.Extensions
}

// Provider contributes view descriptors.  Populate is called once per build
// attempt and may add descriptors or overwrite those of earlier providers.
type Provider interface {
	Populate(app Application, set *DescriptorSet) error
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(app Application, set *DescriptorSet) error

func (f ProviderFunc) Populate(app Application, set *DescriptorSet) error {
	return f(app, set)
}

// DirProvider contributes every template file below a directory.  The logical
// path of a file is its path relative to Root without the extension, after
// Prefix, e.g. "layouts/main".
type DirProvider struct {
	Name       string   // origin; defaults to the application name
	FS         fs.FS    // nil means the application's FS
	Root       string   // directory within FS; "" means the whole FS
	Prefix     string   // prepended to logical paths
	Extensions []string // nil means the application's extensions
}

func (p DirProvider) Populate(app Application, set *DescriptorSet) error {
	var fsys = p.FS
	if fsys == nil {
		fsys = app.FS
	}
	if fsys == nil {
		return errors.New("dir provider: no file system")
	}
	var root = path.Clean(p.Root)
	var exts = p.Extensions
	if len(exts) == 0 {
		exts = app.extensions()
	}
	var origin = p.Name
	if origin == "" {
		origin = app.Name
	}

	return fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		var ext = matchExtension(name, exts)
		if ext == "" {
			return nil
		}
		text, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		var rel = strings.TrimSuffix(name, ext)
		if root != "." {
			rel = strings.TrimPrefix(rel, root+"/")
		}
		return set.Put(Descriptor{Path: p.Prefix + rel, Origin: origin, Text: string(text)})
	})
}

func matchExtension(name string, exts []string) string {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}

// MapProvider contributes in-memory templates keyed by logical path, in
// sorted path order.
type MapProvider struct {
	Name  string
	Views map[string]string
}

func (p MapProvider) Populate(_ Application, set *DescriptorSet) error {
	var paths = make([]string, 0, len(p.Views))
	for k := range p.Views {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	for _, k := range paths {
		if err := set.Put(Descriptor{Path: k, Origin: p.Name, Text: p.Views[k]}); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return nil
}

// ManifestProvider contributes the views listed in a YAML manifest:
//
//	views:
//	  - path: layouts/main
//	    file: shared/main.liquid
//	  - path: banner
//	    text: "<b>{{ message }}</b>"
//
// Files are relative to the manifest's directory.
type ManifestProvider struct {
	Name string
	FS   fs.FS  // nil means the application's FS
	File string // manifest path within FS
}

type manifest struct {
	Views []manifestEntry `yaml:"views"`
}

type manifestEntry struct {
	Path string `yaml:"path"`
	File string `yaml:"file"`
	Text string `yaml:"text"`
}

func (p ManifestProvider) Populate(app Application, set *DescriptorSet) error {
	var fsys = p.FS
	if fsys == nil {
		fsys = app.FS
	}
	if fsys == nil {
		return errors.New("manifest provider: no file system")
	}
	var origin = p.Name
	if origin == "" {
		origin = p.File
	}

	content, err := fs.ReadFile(fsys, p.File)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", p.File, err)
	}
	var m manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return fmt.Errorf("manifest %s: %w", p.File, err)
	}

	var dir = path.Dir(p.File)
	for i, entry := range m.Views {
		if (entry.File == "") == (entry.Text == "") {
			return fmt.Errorf("manifest %s: view %d (%q): exactly one of file and text is required", p.File, i, entry.Path)
		}
		var text = entry.Text
		if entry.File != "" {
			b, err := fs.ReadFile(fsys, path.Join(dir, entry.File))
			if err != nil {
				return fmt.Errorf("manifest %s: %w", p.File, err)
			}
			text = string(b)
		}
		if err := set.Put(Descriptor{Path: entry.Path, Origin: origin, Text: text}); err != nil {
			return fmt.Errorf("manifest %s: view %d: %w", p.File, i, err)
		}
	}
	return nil
}
