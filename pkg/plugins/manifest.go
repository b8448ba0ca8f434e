package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// Manifest describes plugin metadata shipped next to an extension
type Manifest struct {
	ID          string            `yaml:"id"`          // Must equal Plugin.Name()
	Name        string            `yaml:"name"`        // Display name
	Version     string            `yaml:"version"`     // Semver
	APIVersion  string            `yaml:"api_version"` // Plugin API version
	Description string            `yaml:"description"`
	Author      string            `yaml:"author"`
	License     string            `yaml:"license"`
	Homepage    string            `yaml:"homepage"`
	Interfaces  []Declaration     `yaml:"interfaces"` // Expected to match Plugin.Interfaces()
	Metadata    map[string]string `yaml:"metadata"`
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return e.Field + ": " + e.Message
}

// LoadManifest loads and parses a plugin manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &manifest, nil
}

// LoadManifestFromDir loads a plugin manifest from a directory (looks for plugin.yaml)
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, "plugin.yaml"))
}

// SaveManifest saves a plugin manifest to a file
func SaveManifest(manifest *Manifest, path string) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateManifest performs basic validation on a plugin manifest
func ValidateManifest(manifest *Manifest) []ValidationError {
	var errors []ValidationError

	if manifest.ID == "" {
		errors = append(errors, ValidationError{Field: "id", Message: "Plugin ID is required"})
	}

	if manifest.Version == "" {
		errors = append(errors, ValidationError{Field: "version", Message: "Version is required"})
	} else if !isValidSemver(manifest.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.Version),
		})
	}

	if manifest.APIVersion != "" && !isValidSemver(manifest.APIVersion) {
		errors = append(errors, ValidationError{
			Field:   "api_version",
			Message: fmt.Sprintf("Invalid semver format: %s", manifest.APIVersion),
		})
	}

	seen := make(map[string]bool)
	for i, decl := range manifest.Interfaces {
		if decl.Name == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("interfaces[%d].name", i),
				Message: "Interface name is required",
			})
			continue
		}
		if seen[decl.Name] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("interfaces[%d].name", i),
				Message: fmt.Sprintf("Interface %s declared twice", decl.Name),
			})
		}
		seen[decl.Name] = true
	}

	return errors
}

// CheckDeclarations compares the manifest's interface list with what the plugin declares
func (m *Manifest) CheckDeclarations(plugin Plugin) error {
	if len(m.Interfaces) == 0 {
		return nil
	}

	declared := plugin.Interfaces()
	if len(declared) != len(m.Interfaces) {
		return fmt.Errorf("manifest for %s lists %d interface(s), plugin declares %d",
			m.ID, len(m.Interfaces), len(declared))
	}
	for i := range declared {
		if declared[i] != m.Interfaces[i] {
			return fmt.Errorf("manifest for %s: interface %d is %+v, plugin declares %+v",
				m.ID, i, m.Interfaces[i], declared[i])
		}
	}
	return nil
}

// isValidSemver checks if a version string follows semantic versioning
func isValidSemver(version string) bool {
	return semverRegex.MatchString(version)
}

// IsCompatibleAPIVersion checks if a plugin's API version is compatible with the current one.
// Only the major version is compared.
func IsCompatibleAPIVersion(pluginAPIVersion, currentAPIVersion string) bool {
	return extractMajorVersion(pluginAPIVersion) == extractMajorVersion(currentAPIVersion)
}

func extractMajorVersion(version string) string {
	matches := semverRegex.FindStringSubmatch(version)
	if len(matches) > 1 {
		return matches[1]
	}
	return "0"
}
