package keymanager

import (
	"fmt"
	"strings"
)

// DefaultVersion is the version label applied when the caller doesn't name one.
const DefaultVersion = "latest"

// Locator identifies one secret version in the store as the triple
// (project, secret name, version label).
type Locator struct {
	Project string
	Name    string
	Version string
}

// Path renders the locator as the store's opaque resource name.
func (l Locator) Path() string {
	version := l.Version
	if version == "" {
		version = DefaultVersion
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", l.Project, l.Name, version)
}

// ParsePath parses a resource name produced by Locator.Path.
func ParsePath(path string) (Locator, error) {
	parts := strings.Split(path, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "secrets" || parts[4] != "versions" {
		return Locator{}, fmt.Errorf("malformed secret version path %q", path)
	}
	if parts[1] == "" || parts[3] == "" || parts[5] == "" {
		return Locator{}, fmt.Errorf("secret version path %q has empty components", path)
	}

	return Locator{Project: parts[1], Name: parts[3], Version: parts[5]}, nil
}
