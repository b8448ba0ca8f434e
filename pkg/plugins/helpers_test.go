package plugins

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/catalog/pkg/auth"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// bare declares whatever it is told to, without implementing anything
type bare struct {
	name  string
	decls []Declaration
}

func (p *bare) Name() string              { return p.name }
func (p *bare) Interfaces() []Declaration { return p.decls }

// authPlugin contributes auth functions
type authPlugin struct {
	bare
	funcs map[string]*auth.Handler
}

func newAuthPlugin(name string) *authPlugin {
	return &authPlugin{bare: bare{name: name, decls: Implements(IAuthFunctions)}}
}

func (p *authPlugin) AuthFunctions() map[string]*auth.Handler { return p.funcs }

// datasetForm claims dataset types and inherits the default templates
type datasetForm struct {
	DefaultDatasetForm
	name     string
	types    []string
	fallback bool
}

func (f *datasetForm) Name() string              { return f.name }
func (f *datasetForm) Interfaces() []Declaration { return Inherits(IDatasetForm) }
func (f *datasetForm) PackageTypes() []string    { return f.types }
func (f *datasetForm) IsFallback() bool          { return f.fallback }

// groupForm claims group or organization types
type groupForm struct {
	DefaultGroupForm
	name     string
	types    []string
	org      bool
	fallback bool
}

func (f *groupForm) Name() string              { return f.name }
func (f *groupForm) Interfaces() []Declaration { return Inherits(IGroupForm) }
func (f *groupForm) GroupTypes() []string      { return f.types }
func (f *groupForm) IsOrganization() bool      { return f.org }
func (f *groupForm) IsFallback() bool          { return f.fallback }

func names(plugins []Plugin) []string {
	out := make([]string, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, p.Name())
	}
	return out
}
