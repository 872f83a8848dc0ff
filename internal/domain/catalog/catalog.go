// Package catalog resolves catalog identifiers to display descriptors.
//
// Resolution is used for decoration only. Matching bids to requested items
// never goes through the catalog.
package catalog

import "strings"

// Descriptor describes a catalog entry for display.
type Descriptor struct {
	Name     string `json:"name"`
	Form     string `json:"form"`
	Strength string `json:"strength"`
}

// Label joins the non-empty descriptor parts, e.g. "Amoxicillin 500mg capsule".
func (d Descriptor) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Name, d.Strength, d.Form} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Resolver looks up a descriptor by catalog id.
type Resolver interface {
	Resolve(catalogID string) (Descriptor, bool)
}

// Map is an in-memory Resolver.
type Map map[string]Descriptor

// Resolve implements Resolver.
func (m Map) Resolve(catalogID string) (Descriptor, bool) {
	d, ok := m[catalogID]
	return d, ok
}

// Empty never resolves anything.
var Empty Resolver = Map(nil)
