package domain

// DependencyClass is the declared role of a dependency edge in a package
// manifest.
type DependencyClass string

const (
	// ClassRequired is a runtime dependency.
	ClassRequired DependencyClass = "required"
	// ClassOptional is an optional runtime dependency.
	ClassOptional DependencyClass = "optional"
	// ClassDevelopment is a development-only dependency. Subtrees reachable
	// only through a development edge are excluded from rebuild candidacy.
	ClassDevelopment DependencyClass = "development"
)

// Manifest is the subset of a package descriptor the walker needs: the
// package's identity and its declared dependency edges by class.
type Manifest struct {
	Name                 string
	Version              string
	Dependencies         map[string]string
	OptionalDependencies map[string]string
	DevDependencies      map[string]string

	// Gypfile mirrors the manifest flag some packages set instead of (or in
	// addition to) shipping a binding.gyp at the package root.
	Gypfile bool
}

// DependenciesOf returns the dependency names declared under the given class.
func (m *Manifest) DependenciesOf(class DependencyClass) map[string]string {
	switch class {
	case ClassRequired:
		return m.Dependencies
	case ClassOptional:
		return m.OptionalDependencies
	case ClassDevelopment:
		return m.DevDependencies
	default:
		return nil
	}
}
