// Package plugins provides the extension framework of the catalog.
//
// # Overview
//
// Extensions are plugins that declare named capability interfaces. The registry
// answers "which loaded plugins implement X", always in load order, and the type
// bindings map a dataset, group or organization type to the single plugin that
// handles it.
//
//   - Registry: capability registrations and the implementers iterator
//   - Bindings: exclusive type key ownership per category with a fallback
//   - Loader: turns configured plugin names into instances, reading optional manifests
//
// # Capability Interfaces
//
// IAuthFunctions: contributes authorization functions (AuthFunctionsProvider)
// IDatasetForm: handles one or more dataset types (DatasetForm)
// IGroupForm: handles group or organization types (GroupForm)
// ITranslation: contributes a message catalog directory (TranslationProvider)
// IRoutes: adds HTTP routes (RoutesProvider)
//
// A plugin may embed one of the built-in forms and declare the interface with
// Inherit set, overriding only the methods it cares about:
//
//	type surveyForm struct {
//		plugins.DefaultDatasetForm
//	}
//
//	func (f *surveyForm) Name() string { return "survey" }
//	func (f *surveyForm) Interfaces() []plugins.Declaration {
//		return plugins.Inherits(plugins.IDatasetForm)
//	}
//	func (f *surveyForm) PackageTypes() []string { return []string{"survey"} }
//
// # Usage Example
//
//	loader := plugins.NewLoader(cfg.Plugins.ManifestDirs, log)
//	loader.RegisterFactory("survey", func() (plugins.Plugin, error) { return &surveyForm{}, nil })
//
//	loaded, err := loader.Load(ctx, cfg.Plugins.Names)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	registry := plugins.NewRegistry(log)
//	if err := registry.LoadAll(loaded); err != nil {
//		log.Fatal(err)
//	}
//
//	for _, p := range plugins.Implementations[plugins.AuthFunctionsProvider](registry, plugins.IAuthFunctions) {
//		fmt.Println(p.Name())
//	}
//
// # Related Packages
//
//   - pkg/auth: consumes IAuthFunctions implementers
//   - pkg/catalog: wires the registry, bindings and resolver together
package plugins
