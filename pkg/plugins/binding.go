package plugins

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Binding categories
const (
	CategoryDataset      = "dataset"
	CategoryGroup        = "group"
	CategoryOrganization = "organization"
)

// TypeClaim is one plugin's claim on type keys within a category
type TypeClaim struct {
	Plugin   Plugin
	Keys     []string
	Fallback bool
}

type category struct {
	keys     []string
	bound    map[string]Plugin
	fallback Plugin
	// builtin is set while fallback is the on-demand built-in default
	builtin bool
	frozen  bool
}

// Bindings resolves a type key to the single plugin that owns it, per category.
type Bindings struct {
	mu         sync.RWMutex
	categories map[string]*category
	builtins   map[string]Plugin
	log        *logrus.Logger
}

// NewBindings creates a binding registry with the built-in form plugins as defaults
func NewBindings(log *logrus.Logger) *Bindings {
	if log == nil {
		log = logrus.New()
	}

	return &Bindings{
		categories: make(map[string]*category),
		builtins: map[string]Plugin{
			CategoryDataset:      &DefaultDatasetForm{},
			CategoryGroup:        &DefaultGroupForm{},
			CategoryOrganization: &DefaultOrganizationForm{},
		},
		log: log,
	}
}

// SetBuiltin replaces the default-behaviour plugin used for category when no fallback is bound
func (b *Bindings) SetBuiltin(cat string, plugin Plugin) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.builtins[cat] = plugin
}

func (b *Bindings) category(cat string) *category {
	c, ok := b.categories[cat]
	if !ok {
		c = &category{bound: make(map[string]Plugin)}
		b.categories[cat] = c
	}
	return c
}

// Bind gives plugin exclusive ownership of key within cat.
// Binding the same key to the same plugin again is a no-op.
func (b *Bindings) Bind(cat, key string, plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot bind nil plugin")
	}
	if key == "" {
		return fmt.Errorf("cannot bind empty %s type (plugin %s)", cat, plugin.Name())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.category(cat)
	if existing, ok := c.bound[key]; ok {
		if existing == plugin {
			return nil
		}
		return &BindingConflictError{
			Category: cat,
			Key:      key,
			Existing: existing.Name(),
			Incoming: plugin.Name(),
		}
	}
	if c.frozen {
		return fmt.Errorf("%w: %s (plugin %s, type %q)", ErrBindingsFrozen, cat, plugin.Name(), key)
	}

	c.bound[key] = plugin
	c.keys = append(c.keys, key)
	b.log.Debugf("Bound %s type %q to plugin %s", cat, key, plugin.Name())
	return nil
}

// BindFallback makes plugin the fallback for cat. A category has at most one fallback.
func (b *Bindings) BindFallback(cat string, plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot bind nil plugin")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.category(cat)
	if c.frozen {
		return fmt.Errorf("%w: %s fallback (plugin %s)", ErrBindingsFrozen, cat, plugin.Name())
	}
	if c.fallback != nil && !c.builtin {
		return fmt.Errorf("%w: %s has %s, attempted by %s",
			ErrFallbackExists, cat, c.fallback.Name(), plugin.Name())
	}

	c.fallback = plugin
	c.builtin = false
	b.log.Debugf("Plugin %s is the %s fallback", plugin.Name(), cat)
	return nil
}

// Lookup returns the plugin bound to key, else the category fallback.
// Without a fallback the built-in default is installed and returned.
func (b *Bindings) Lookup(cat, key string) Plugin {
	b.mu.RLock()
	if c, ok := b.categories[cat]; ok {
		if p, ok := c.bound[key]; ok {
			b.mu.RUnlock()
			return p
		}
		if c.fallback != nil {
			p := c.fallback
			b.mu.RUnlock()
			return p
		}
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.category(cat)
	if c.fallback == nil {
		c.fallback = b.builtinFor(cat)
		c.builtin = true
	}
	return c.fallback
}

func (b *Bindings) builtinFor(cat string) Plugin {
	if p, ok := b.builtins[cat]; ok {
		return p
	}
	return &defaultPlugin{category: cat}
}

// IsExplicit reports whether key has its own binding in cat
func (b *Bindings) IsExplicit(cat, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.categories[cat]
	if !ok {
		return false
	}
	_, ok = c.bound[key]
	return ok
}

// Keys returns the explicitly bound keys of cat in bind order
func (b *Bindings) Keys(cat string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.categories[cat]
	if !ok {
		return nil
	}
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// IsBound reports whether the full bind pass for cat already ran
func (b *Bindings) IsBound(cat string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.categories[cat]
	return ok && c.frozen
}

// Setup runs the full bind pass for cat: every claimed key is bound, the declared
// fallback (or the built-in default) is installed and the category is frozen.
// Running Setup on an already bound category does nothing.
func (b *Bindings) Setup(cat string, claims []TypeClaim) error {
	if b.IsBound(cat) {
		b.log.Debugf("Type bindings for %s already set up", cat)
		return nil
	}

	for _, claim := range claims {
		for _, key := range claim.Keys {
			if err := b.Bind(cat, key, claim.Plugin); err != nil {
				return err
			}
		}
		if claim.Fallback {
			if err := b.BindFallback(cat, claim.Plugin); err != nil {
				return err
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.category(cat)
	if c.fallback == nil {
		c.fallback = b.builtinFor(cat)
		c.builtin = true
	}
	c.frozen = true
	b.log.Infof("Set up %d %s type binding(s), fallback %s", len(c.keys), cat, c.fallback.Name())
	return nil
}

// Reset forgets every binding; built-in defaults are kept
func (b *Bindings) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.categories = make(map[string]*category)
}

// DatasetClaims collects type claims from the IDatasetForm implementers, in load order
func DatasetClaims(r *Registry) []TypeClaim {
	forms := Implementations[DatasetForm](r, IDatasetForm)
	claims := make([]TypeClaim, 0, len(forms))
	for _, f := range forms {
		claims = append(claims, TypeClaim{Plugin: f, Keys: f.PackageTypes(), Fallback: f.IsFallback()})
	}
	return claims
}

// GroupClaims collects type claims from the IGroupForm implementers, in load order.
// organizations selects organization forms instead of plain group forms.
func GroupClaims(r *Registry, organizations bool) []TypeClaim {
	forms := Implementations[GroupForm](r, IGroupForm)
	claims := make([]TypeClaim, 0, len(forms))
	for _, f := range forms {
		if f.IsOrganization() != organizations {
			continue
		}
		claims = append(claims, TypeClaim{Plugin: f, Keys: f.GroupTypes(), Fallback: f.IsFallback()})
	}
	return claims
}
