package plugins

// DefaultDatasetForm is the built-in dataset form behaviour.
// Plugins can embed it and declare IDatasetForm with Inherit set.
type DefaultDatasetForm struct{}

func (f *DefaultDatasetForm) Name() string              { return "default_dataset_form" }
func (f *DefaultDatasetForm) Interfaces() []Declaration { return Implements(IDatasetForm) }
func (f *DefaultDatasetForm) PackageTypes() []string    { return nil }
func (f *DefaultDatasetForm) IsFallback() bool          { return false }
func (f *DefaultDatasetForm) NewTemplate() string       { return "package/new.html" }
func (f *DefaultDatasetForm) ReadTemplate() string      { return "package/read.html" }
func (f *DefaultDatasetForm) EditTemplate() string      { return "package/edit.html" }
func (f *DefaultDatasetForm) SearchTemplate() string    { return "package/search.html" }

// DefaultGroupForm is the built-in group form behaviour
type DefaultGroupForm struct{}

func (f *DefaultGroupForm) Name() string              { return "default_group_form" }
func (f *DefaultGroupForm) Interfaces() []Declaration { return Implements(IGroupForm) }
func (f *DefaultGroupForm) GroupTypes() []string      { return nil }
func (f *DefaultGroupForm) IsOrganization() bool      { return false }
func (f *DefaultGroupForm) IsFallback() bool          { return false }
func (f *DefaultGroupForm) IndexTemplate() string     { return "group/index.html" }
func (f *DefaultGroupForm) ReadTemplate() string      { return "group/read.html" }
func (f *DefaultGroupForm) EditTemplate() string      { return "group/edit.html" }

// DefaultOrganizationForm is the built-in organization form behaviour
type DefaultOrganizationForm struct {
	DefaultGroupForm
}

func (f *DefaultOrganizationForm) Name() string          { return "default_organization_form" }
func (f *DefaultOrganizationForm) IsOrganization() bool  { return true }
func (f *DefaultOrganizationForm) IndexTemplate() string { return "organization/index.html" }
func (f *DefaultOrganizationForm) ReadTemplate() string  { return "organization/read.html" }
func (f *DefaultOrganizationForm) EditTemplate() string  { return "organization/edit.html" }

// defaultPlugin stands in for categories that have no built-in form
type defaultPlugin struct {
	category string
}

func (p *defaultPlugin) Name() string              { return "default_" + p.category }
func (p *defaultPlugin) Interfaces() []Declaration { return nil }
