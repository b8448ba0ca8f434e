// Package datasettypes provides configurable dataset and group type forms.
//
// Each form claims a list of type keys and renders them from a per-type template
// directory, falling back to the built-in templates for everything it does not override.
package datasettypes

import (
	"path"

	"github.com/platinummonkey/catalog/pkg/plugins"
)

// DatasetTypes handles the dataset types it was created with
type DatasetTypes struct {
	plugins.DefaultDatasetForm

	name      string
	types     []string
	fallback  bool
	i18nDir   string
	templates string
}

// Option configures a form plugin
type Option func(*options)

type options struct {
	fallback  bool
	i18nDir   string
	templates string
}

// AsFallback makes the form handle every type no other plugin claimed
func AsFallback() Option {
	return func(o *options) { o.fallback = true }
}

// WithTranslations contributes a message catalog directory
func WithTranslations(dir string) Option {
	return func(o *options) { o.i18nDir = dir }
}

// WithTemplateDir sets the template directory; defaults to the plugin name
func WithTemplateDir(dir string) Option {
	return func(o *options) { o.templates = dir }
}

func apply(name string, opts []Option) options {
	o := options{templates: name}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDatasetTypes creates a dataset form plugin claiming types
func NewDatasetTypes(name string, types []string, opts ...Option) *DatasetTypes {
	o := apply(name, opts)
	return &DatasetTypes{
		name:      name,
		types:     types,
		fallback:  o.fallback,
		i18nDir:   o.i18nDir,
		templates: o.templates,
	}
}

func (d *DatasetTypes) Name() string { return d.name }

func (d *DatasetTypes) Interfaces() []plugins.Declaration {
	decls := plugins.Inherits(plugins.IDatasetForm)
	if d.i18nDir != "" {
		decls = append(decls, plugins.Declaration{Name: plugins.ITranslation})
	}
	return decls
}

func (d *DatasetTypes) PackageTypes() []string { return d.types }
func (d *DatasetTypes) IsFallback() bool       { return d.fallback }
func (d *DatasetTypes) ReadTemplate() string   { return path.Join(d.templates, "read.html") }
func (d *DatasetTypes) EditTemplate() string   { return path.Join(d.templates, "edit.html") }

func (d *DatasetTypes) I18nDirectory() string { return d.i18nDir }
func (d *DatasetTypes) I18nDomain() string    { return "catalog-" + d.name }

// GroupTypes handles group or organization types
type GroupTypes struct {
	plugins.DefaultGroupForm

	name         string
	types        []string
	organization bool
	fallback     bool
	templates    string
}

// NewGroupTypes creates a group form plugin; organization selects organization types
func NewGroupTypes(name string, types []string, organization bool, opts ...Option) *GroupTypes {
	o := apply(name, opts)
	return &GroupTypes{
		name:         name,
		types:        types,
		organization: organization,
		fallback:     o.fallback,
		templates:    o.templates,
	}
}

func (g *GroupTypes) Name() string { return g.name }

func (g *GroupTypes) Interfaces() []plugins.Declaration {
	return plugins.Inherits(plugins.IGroupForm)
}

func (g *GroupTypes) GroupTypes() []string  { return g.types }
func (g *GroupTypes) IsOrganization() bool  { return g.organization }
func (g *GroupTypes) IsFallback() bool      { return g.fallback }
func (g *GroupTypes) ReadTemplate() string  { return path.Join(g.templates, "read.html") }
func (g *GroupTypes) IndexTemplate() string { return path.Join(g.templates, "index.html") }
