package render

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tessera-cms/fluid/data"
)

// ParseGlobals parses the given input, expecting a YAML mapping of global
// names to values:
//
//	site_name: Tessera
//	features:
//	  search: true
//
// An empty document yields no globals.  Keys must be strings.
func ParseGlobals(input io.Reader) (data.Map, error) {
	var raw map[string]interface{}
	if err := yaml.NewDecoder(input).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return data.Map{}, nil
		}
		return nil, fmt.Errorf("parse globals: %w", err)
	}
	var globals = make(data.Map, len(raw))
	for name, value := range raw {
		v, err := convert(value)
		if err != nil {
			return nil, fmt.Errorf("parse globals: %s: %w", name, err)
		}
		globals[name] = v
	}
	return globals, nil
}

// convert turns decoded YAML into a Value.  Nested mappings decode with
// interface keys, which are rejected unless they are strings.
func convert(value interface{}) (result data.Value, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("%v", e)
		}
	}()
	return data.New(value), nil
}
