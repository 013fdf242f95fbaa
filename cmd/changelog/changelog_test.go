package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validChangelog = `# Changelog

All notable changes to this project will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.1.0/),
and this project adheres to [Semantic Versioning](https://semver.org/spec/v2.0.0.html).

## [Unreleased]

### Added
- New feature in progress

## [0.2.0] - 2026-07-30

### Added
- Versioned key storage
- Advisory rotation sweeper

### Fixed
- Not-found handling for never-stored version labels

## [0.1.0] - 2026-06-12

### Added
- Initial release

[Unreleased]: https://github.com/keysafehq/keysafe/compare/v0.2.0...HEAD
[0.2.0]: https://github.com/keysafehq/keysafe/compare/v0.1.0...v0.2.0
[0.1.0]: https://github.com/keysafehq/keysafe/releases/tag/v0.1.0
`

func TestParse(t *testing.T) {
	changelog, err := Parse([]byte(validChangelog))
	require.NoError(t, err)
	require.Len(t, changelog.Entries, 3)

	assert.Equal(t, "Unreleased", changelog.Entries[0].Version)
	assert.Empty(t, changelog.Entries[0].Date)

	assert.Equal(t, "0.2.0", changelog.Entries[1].Version)
	assert.Equal(t, "2026-07-30", changelog.Entries[1].Date)
	assert.Contains(t, changelog.Entries[1].Content, "rotation sweeper")

	assert.Len(t, changelog.Links, 3)
	assert.Equal(t, "https://github.com/keysafehq/keysafe/compare/v0.1.0...v0.2.0", changelog.Links["0.2.0"])
}

func TestFindVersion(t *testing.T) {
	changelog, err := Parse([]byte(validChangelog))
	require.NoError(t, err)

	tests := []struct {
		name     string
		version  string
		expected string
	}{
		{"exact version", "0.2.0", "0.2.0"},
		{"with v prefix", "v0.2.0", "0.2.0"},
		{"older version", "0.1.0", "0.1.0"},
		{"unreleased", "Unreleased", "Unreleased"},
		{"non-existent", "2.0.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := changelog.FindVersion(tt.version)
			if tt.expected == "" {
				assert.Nil(t, entry)
			} else {
				require.NotNil(t, entry)
				assert.Equal(t, tt.expected, entry.Version)
			}
		})
	}
}

func TestValidateValid(t *testing.T) {
	result := Validate([]byte(validChangelog))
	assert.True(t, result.IsValid(), "expected valid changelog, got errors: %v", result.Errors)
}

func TestValidateMissingParts(t *testing.T) {
	source := `## [1.0.0]

### Invented
- Something
`
	result := Validate([]byte(source))
	require.False(t, result.IsValid())

	var messages []string
	for _, e := range result.Errors {
		messages = append(messages, e.Message)
	}
	joined := ""
	for _, m := range messages {
		joined += m + "\n"
	}

	assert.Contains(t, joined, "Missing changelog title")
	assert.Contains(t, joined, "Missing [Unreleased] section")
	assert.Contains(t, joined, "missing a release date")
	assert.Contains(t, joined, "Invalid change type 'Invented'")
	assert.Contains(t, joined, "Missing link definition for version [1.0.0]")
}

func TestStripLinkDefinitions(t *testing.T) {
	content := "### Added\n- Something\n\n[1.0.0]: https://example.com/1.0.0"
	assert.Equal(t, "### Added\n- Something", stripLinkDefinitions(content))
}
