package catalog

import (
	"github.com/gorilla/mux"

	"github.com/platinummonkey/catalog/pkg/plugins"
)

// TranslationDir is one message catalog contributed by a plugin
type TranslationDir struct {
	Plugin    string `json:"plugin"`
	Directory string `json:"directory"`
	Domain    string `json:"domain"`
}

// TranslationDirs lists translation catalogs with the last loaded plugin first, so
// later plugins override the messages of earlier ones.
func (c *Core) TranslationDirs() []TranslationDir {
	providers := plugins.Implementations[plugins.TranslationProvider](c.registry, plugins.ITranslation)

	dirs := make([]TranslationDir, 0, len(providers))
	for _, p := range plugins.Reversed(providers) {
		dir := p.I18nDirectory()
		if dir == "" {
			continue
		}
		dirs = append(dirs, TranslationDir{Plugin: p.Name(), Directory: dir, Domain: p.I18nDomain()})
	}
	return dirs
}

// RegisterRoutes lets every IRoutes plugin add its routes, in load order
func (c *Core) RegisterRoutes(r *mux.Router) {
	for _, p := range plugins.Implementations[plugins.RoutesProvider](c.registry, plugins.IRoutes) {
		c.log.Debugf("Registering routes of plugin %s", p.Name())
		p.RegisterRoutes(r)
	}
}
