package glubview

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ReadGlobals decodes a YAML mapping of global names to values.
func ReadGlobals(r io.Reader) (map[string]any, error) {
	g := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&g); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "Cannot decode globals")
	}
	return g, nil
}

// AddGlobals adds every entry of g with AddGlobal, in name order. It stops at
// the first name that is already defined.
func (r *Renderer) AddGlobals(g map[string]any) error {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.AddGlobal(name, g[name]); err != nil {
			return err
		}
	}
	return nil
}
