package domain

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Ecosystem identifies the package registry a pin belongs to.
type Ecosystem string

const (
	EcosystemPyPI Ecosystem = "pypi"
	EcosystemGo   Ecosystem = "go"
	EcosystemNPM  Ecosystem = "npm"
)

// PackagePin is a package reference extracted from a tracked command,
// such as "requests==2.31.0" or "golang.org/x/text@v0.14.0".
type PackagePin struct {
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	Ecosystem Ecosystem `json:"ecosystem"`
	Source    string    `json:"source"`
}

// NewPackagePin builds a pin, validating the version against semver.
// An unparseable version is dropped rather than rejected: the pin still
// identifies the package, just without a resolvable version.
func NewPackagePin(name, version string, eco Ecosystem, source string) PackagePin {
	pin := PackagePin{
		Name:      name,
		Ecosystem: eco,
		Source:    source,
	}
	if version == "" {
		return pin
	}
	if _, err := semver.NewVersion(strings.TrimPrefix(version, "v")); err == nil {
		pin.Version = version
	}
	return pin
}

// PackageDoc is registry metadata fetched for a package pin, used to
// enrich analysis prompts and tutorial resource sections.
type PackageDoc struct {
	Name          string    `json:"name"`
	Ecosystem     Ecosystem `json:"ecosystem"`
	Description   string    `json:"description,omitempty"`
	LatestVersion string    `json:"latest_version,omitempty"`
	URL           string    `json:"url"`
}

// Pinned reports whether the pin carries a valid version.
func (p PackagePin) Pinned() bool {
	return p.Version != ""
}

// String renders the pin in its ecosystem's native notation.
func (p PackagePin) String() string {
	if p.Version == "" {
		return p.Name
	}
	switch p.Ecosystem {
	case EcosystemPyPI:
		return p.Name + "==" + p.Version
	case EcosystemGo:
		return p.Name + "@" + p.Version
	default:
		return p.Name + "@" + p.Version
	}
}
