package plugins

import (
	"reflect"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/catalog/pkg/auth"
)

// Well-known capability interface names
const (
	IAuthFunctions = "IAuthFunctions"
	IDatasetForm   = "IDatasetForm"
	IGroupForm     = "IGroupForm"
	ITranslation   = "ITranslation"
	IRoutes        = "IRoutes"
)

// Interface describes a named capability contract.
type Interface struct {
	Name    string
	Methods []string

	conforms func(Plugin) bool
}

// NewInterface builds an Interface whose conformance check is "the plugin satisfies T".
// T should be an interface type; its method set becomes Methods.
func NewInterface[T any](name string) Interface {
	var methods []string
	if t := reflect.TypeFor[T](); t.Kind() == reflect.Interface {
		methods = make([]string, 0, t.NumMethod())
		for i := 0; i < t.NumMethod(); i++ {
			methods = append(methods, t.Method(i).Name)
		}
	}

	return Interface{
		Name:    name,
		Methods: methods,
		conforms: func(p Plugin) bool {
			_, ok := p.(T)
			return ok
		},
	}
}

// MarkerInterface builds an Interface with no methods that every plugin conforms to
func MarkerInterface(name string) Interface {
	return Interface{Name: name}
}

// Conforms reports whether p satisfies the interface
func (i Interface) Conforms(p Plugin) bool {
	if i.conforms == nil {
		return true
	}
	return i.conforms(p)
}

// AuthFunctionsProvider contributes named authorization functions
type AuthFunctionsProvider interface {
	Plugin
	AuthFunctions() map[string]*auth.Handler
}

// DatasetForm customizes behaviour for one or more dataset types
type DatasetForm interface {
	Plugin
	PackageTypes() []string
	IsFallback() bool
	NewTemplate() string
	ReadTemplate() string
	EditTemplate() string
	SearchTemplate() string
}

// GroupForm customizes behaviour for one or more group or organization types
type GroupForm interface {
	Plugin
	GroupTypes() []string
	IsOrganization() bool
	IsFallback() bool
	IndexTemplate() string
	ReadTemplate() string
	EditTemplate() string
}

// TranslationProvider contributes a directory of message catalogs
type TranslationProvider interface {
	Plugin
	I18nDirectory() string
	I18nDomain() string
}

// RoutesProvider adds HTTP routes to the application router
type RoutesProvider interface {
	Plugin
	RegisterRoutes(r *mux.Router)
}

// WellKnownInterfaces returns the capability interfaces every registry defines
func WellKnownInterfaces() []Interface {
	return []Interface{
		NewInterface[AuthFunctionsProvider](IAuthFunctions),
		NewInterface[DatasetForm](IDatasetForm),
		NewInterface[GroupForm](IGroupForm),
		NewInterface[TranslationProvider](ITranslation),
		NewInterface[RoutesProvider](IRoutes),
	}
}
