package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// CurrentAPIVersion is the current version of the plugin API
	CurrentAPIVersion = "1.0.0"
)

// Loader turns an ordered list of plugin names into plugin instances.
// Each factory runs at most once per loader; the returned order is the requested order.
type Loader struct {
	factories    map[string]Factory
	manifestDirs []string
	instances    map[string]Plugin
	manifests    map[string]*Manifest
	mu           sync.RWMutex
	log          *logrus.Logger
}

// NewLoader creates a new plugin loader.
// manifestDirs are searched for <dir>/<plugin name>/plugin.yaml; missing manifests are fine.
func NewLoader(manifestDirs []string, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}

	return &Loader{
		factories:    make(map[string]Factory),
		manifestDirs: manifestDirs,
		instances:    make(map[string]Plugin),
		manifests:    make(map[string]*Manifest),
		log:          log,
	}
}

// RegisterFactory makes a plugin available under name
func (l *Loader) RegisterFactory(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if factory == nil {
		return fmt.Errorf("factory for %s is nil", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.factories[name]; exists {
		return fmt.Errorf("factory already registered: %s", name)
	}
	l.factories[name] = factory
	return nil
}

// Available returns the names of all registered factories, sorted
func (l *Loader) Available() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.factories))
	for name := range l.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load instantiates the named plugins in order.
// Manifests are read concurrently but results keep the requested order.
func (l *Loader) Load(ctx context.Context, names []string) ([]Plugin, error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("plugin listed twice: %s", name)
		}
		seen[name] = true
	}

	manifests, err := l.readManifests(ctx, names)
	if err != nil {
		return nil, err
	}

	plugins := make([]Plugin, 0, len(names))
	for i, name := range names {
		plugin, err := l.instance(name)
		if err != nil {
			return nil, err
		}

		if m := manifests[i]; m != nil {
			if m.ID != plugin.Name() {
				return nil, fmt.Errorf("manifest id %q does not match plugin %q", m.ID, plugin.Name())
			}
			if err := m.CheckDeclarations(plugin); err != nil {
				return nil, err
			}
			l.mu.Lock()
			l.manifests[name] = m
			l.mu.Unlock()
		}

		l.log.Infof("Loaded plugin: %s (position %d, %d interface(s))", plugin.Name(), i, len(plugin.Interfaces()))
		plugins = append(plugins, plugin)
	}

	return plugins, nil
}

// instance returns the cached plugin for name, constructing it on first use
func (l *Loader) instance(name string) (Plugin, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.instances[name]; ok {
		return p, nil
	}

	factory, ok := l.factories[name]
	if !ok {
		return nil, fmt.Errorf("plugin not found: %s", name)
	}

	p, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin %s: %w", name, err)
	}
	if p == nil {
		return nil, fmt.Errorf("factory for %s returned nil plugin", name)
	}
	if p.Name() != name {
		return nil, fmt.Errorf("factory for %s created plugin named %s", name, p.Name())
	}

	l.instances[name] = p
	return p, nil
}

// readManifests looks up each plugin's manifest; result[i] belongs to names[i]
func (l *Loader) readManifests(ctx context.Context, names []string) ([]*Manifest, error) {
	result := make([]*Manifest, len(names))
	if len(l.manifestDirs) == 0 {
		return result, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := l.findManifest(name)
			if err != nil {
				return err
			}
			result[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Loader) findManifest(name string) (*Manifest, error) {
	for _, dir := range l.manifestDirs {
		pluginDir := filepath.Join(dir, name)
		if _, err := os.Stat(filepath.Join(pluginDir, "plugin.yaml")); errors.Is(err, os.ErrNotExist) {
			continue
		}

		m, err := LoadManifestFromDir(pluginDir)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		if errs := ValidateManifest(m); len(errs) > 0 {
			return nil, fmt.Errorf("plugin %s: manifest validation failed: %v", name, errs)
		}
		if m.APIVersion != "" && !IsCompatibleAPIVersion(m.APIVersion, CurrentAPIVersion) {
			return nil, fmt.Errorf("plugin %s: incompatible API version: plugin requires %s, current is %s",
				name, m.APIVersion, CurrentAPIVersion)
		}
		return m, nil
	}

	l.log.Debugf("No manifest found for plugin %s", name)
	return nil, nil
}

// Manifest returns the manifest read for a loaded plugin, if any
func (l *Loader) Manifest(name string) (*Manifest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.manifests[name]
	return m, ok
}

// GetDefaultManifestDirectories returns the default plugin manifest search directories
func GetDefaultManifestDirectories() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "/tmp"
	}

	return []string{
		filepath.Join(homeDir, ".catalog", "plugins"),
		"/etc/catalog/plugins",
		"./plugins",
	}
}
