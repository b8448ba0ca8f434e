package plugins

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// implementer is one (plugin, interface) registration
type implementer struct {
	plugin  Plugin
	inherit bool
}

// Registry tracks which plugins implement which capability interfaces.
//
// Registration happens during the load phase in plugin load order; afterwards the
// registry is only read. Iteration order is always registration order.
type Registry struct {
	mu         sync.RWMutex
	interfaces map[string]Interface
	plugins    []Plugin
	byName     map[string]Plugin
	impls      map[string][]implementer
	log        *logrus.Logger
}

// NewRegistry creates a registry with the well-known interfaces defined
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}

	r := &Registry{log: log}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.interfaces = make(map[string]Interface)
	for _, iface := range WellKnownInterfaces() {
		r.interfaces[iface.Name] = iface
	}
	r.plugins = nil
	r.byName = make(map[string]Plugin)
	r.impls = make(map[string][]implementer)
}

// Define adds (or replaces) an interface definition
func (r *Registry) Define(iface Interface) error {
	if iface.Name == "" {
		return fmt.Errorf("interface name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.interfaces[iface.Name] = iface
	return nil
}

// Interface returns the definition for name
func (r *Registry) Interface(name string) (Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	iface, ok := r.interfaces[name]
	return iface, ok
}

// Register records that plugin implements the named interface.
// Registering the same pair twice is a no-op.
func (r *Registry) Register(plugin Plugin, name string, inherit bool) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}
	if plugin.Name() == "" {
		return fmt.Errorf("plugin has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	iface, ok := r.interfaces[name]
	if !ok {
		return fmt.Errorf("%w: %q (plugin %s)", ErrUnknownInterface, name, plugin.Name())
	}

	if existing, ok := r.byName[plugin.Name()]; ok && existing != plugin {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, plugin.Name())
	}

	for _, impl := range r.impls[name] {
		if impl.plugin == plugin {
			return nil
		}
	}

	if !iface.Conforms(plugin) {
		return fmt.Errorf("%w: %s declares %s", ErrNotImplemented, plugin.Name(), name)
	}

	if _, ok := r.byName[plugin.Name()]; !ok {
		r.byName[plugin.Name()] = plugin
		r.plugins = append(r.plugins, plugin)
	}
	r.impls[name] = append(r.impls[name], implementer{plugin: plugin, inherit: inherit})

	r.log.Debugf("Registered plugin %s for %s (inherit=%t)", plugin.Name(), name, inherit)
	return nil
}

// Load registers every declaration of plugin, in declaration order
func (r *Registry) Load(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	decls := plugin.Interfaces()
	if len(decls) == 0 {
		// Plugins without capabilities still take a position in load order
		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.byName[plugin.Name()]; ok {
			if existing != plugin {
				return fmt.Errorf("%w: %s", ErrDuplicatePlugin, plugin.Name())
			}
			return nil
		}
		r.byName[plugin.Name()] = plugin
		r.plugins = append(r.plugins, plugin)
		return nil
	}

	for _, decl := range decls {
		if err := r.Register(plugin, decl.Name, decl.Inherit); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads plugins in the given order and stops at the first error
func (r *Registry) LoadAll(plugins []Plugin) error {
	for _, p := range plugins {
		if err := r.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// Implementers returns the plugins implementing name, in load order.
// An empty result means no plugin provides the capability.
func (r *Registry) Implementers(name string) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	impls := r.impls[name]
	result := make([]Plugin, 0, len(impls))
	for _, impl := range impls {
		result = append(result, impl.plugin)
	}
	return result
}

// Inherits reports the inherit flag stored for (plugin, name)
func (r *Registry) Inherits(plugin Plugin, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, impl := range r.impls[name] {
		if impl.plugin == plugin {
			return impl.inherit
		}
	}
	return false
}

// Get retrieves a plugin by name
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, exists := r.byName[name]
	if !exists {
		return nil, fmt.Errorf("plugin not found: %s", name)
	}
	return plugin, nil
}

// Has checks if a plugin is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byName[name]
	return exists
}

// Plugins returns every registered plugin in load order
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Info returns load-order information about every registered plugin
func (r *Registry) Info() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PluginInfo, 0, len(r.plugins))
	for i, p := range r.plugins {
		infos = append(infos, PluginInfo{
			Name:       p.Name(),
			Position:   i,
			Interfaces: p.Interfaces(),
		})
	}
	return infos
}

// Count returns the number of registered plugins
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.plugins)
}

// Reset removes all registrations and custom interface definitions
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reset()
}

// Implementations returns the implementers of name converted to T, in load order.
// Registration already verified conformance for defined interfaces; plugins that do
// not convert (marker interfaces) are skipped.
func Implementations[T any](r *Registry, name string) []T {
	plugins := r.Implementers(name)
	result := make([]T, 0, len(plugins))
	for _, p := range plugins {
		if t, ok := p.(T); ok {
			result = append(result, t)
		}
	}
	return result
}
