package plugins

// Plugin is the base interface all plugins must implement
type Plugin interface {
	// Name is the stable identifier of the plugin (e.g. "orggate")
	Name() string
	// Interfaces lists the capability interfaces the plugin declares, in declaration order
	Interfaces() []Declaration
}

// Declaration records that a plugin implements a named capability interface.
//
// Inherit marks a plugin that gets the interface's methods from an embedded base
// implementation instead of declaring every method itself.
type Declaration struct {
	Name    string `yaml:"name" json:"name"`
	Inherit bool   `yaml:"inherit" json:"inherit"`
}

// Implements is a shorthand for building a declaration list
func Implements(names ...string) []Declaration {
	decls := make([]Declaration, 0, len(names))
	for _, name := range names {
		decls = append(decls, Declaration{Name: name})
	}
	return decls
}

// Inherits is like Implements but marks every declaration as inherited
func Inherits(names ...string) []Declaration {
	decls := Implements(names...)
	for i := range decls {
		decls[i].Inherit = true
	}
	return decls
}

// Factory constructs a plugin instance. The loader calls each factory exactly once.
type Factory func() (Plugin, error)

// PluginInfo contains runtime information about a loaded plugin
type PluginInfo struct {
	Name       string        `json:"name"`
	Position   int           `json:"position"` // load order, zero based
	Interfaces []Declaration `json:"interfaces"`
	Manifest   *Manifest     `json:"manifest,omitempty"`
}

// Reversed returns a copy of plugins in reverse order.
//
// Call sites that give later-loaded plugins priority use this explicitly; the
// registry itself always iterates in load order.
func Reversed[T any](plugins []T) []T {
	out := make([]T, len(plugins))
	for i, p := range plugins {
		out[len(plugins)-1-i] = p
	}
	return out
}
