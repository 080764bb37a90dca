package views

import "fmt"

// Aggregator collects the descriptors to compile: the application's own
// templates first, then each provider's contribution in order.
type Aggregator struct {
	App       Application
	Providers []Provider
}

// Aggregate returns the ordered, path-unique descriptor set.  An empty set is
// not an error.  It performs no compilation.
func (a Aggregator) Aggregate() (*DescriptorSet, error) {
	var set = &DescriptorSet{}
	if a.App.FS != nil {
		if err := (DirProvider{}).Populate(a.App, set); err != nil {
			return nil, fmt.Errorf("application %s: %w", a.App.Name, err)
		}
	}
	for _, p := range a.Providers {
		if err := p.Populate(a.App, set); err != nil {
			return nil, fmt.Errorf("provider %s: %w", providerName(p), err)
		}
	}
	return set, nil
}

func providerName(p Provider) string {
	switch p := p.(type) {
	case DirProvider:
		if p.Name != "" {
			return p.Name
		}
	case MapProvider:
		if p.Name != "" {
			return p.Name
		}
	case ManifestProvider:
		if p.Name != "" {
			return p.Name
		}
		return p.File
	}
	return fmt.Sprintf("%T", p)
}
