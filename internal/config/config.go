// Package config loads the optional per-project settings file that tunes
// file discovery: recognized source suffixes, excluded directories, and the
// marker files used to resolve the project root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up at the project root.
const FileName = ".apex-indexer.yml"

// Config controls workspace discovery. Zero-valued fields fall back to the
// defaults, so a settings file may override just one of them.
type Config struct {
	// SourceSuffixes are the file extensions treated as Apex source.
	SourceSuffixes []string `yaml:"source_suffixes"`

	// ExcludeDirs are directory names skipped during enumeration, in
	// addition to hidden directories.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// RootMarkers are the file names whose presence identifies the project
	// root when walking parent directories.
	RootMarkers []string `yaml:"root_markers"`
}

// Default returns the built-in discovery settings for a Salesforce project.
func Default() Config {
	return Config{
		SourceSuffixes: []string{".cls", ".trigger"},
		ExcludeDirs:    []string{"node_modules", ".git", ".sfdx", ".svn"},
		RootMarkers:    []string{"sfdx-project.json"},
	}
}

// Load reads the settings file under root, if present. A missing file yields
// the defaults; a malformed one is an error. Unset fields keep their default
// values.
func Load(root string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", FileName, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if len(file.SourceSuffixes) > 0 {
		cfg.SourceSuffixes = file.SourceSuffixes
	}
	if len(file.ExcludeDirs) > 0 {
		cfg.ExcludeDirs = file.ExcludeDirs
	}
	if len(file.RootMarkers) > 0 {
		cfg.RootMarkers = file.RootMarkers
	}
	return cfg, nil
}

// IsSourceFile reports whether path carries a recognized source suffix.
// Suffix comparison is case-insensitive: Salesforce tooling writes .cls and
// .CLS interchangeably on case-insensitive filesystems.
func (c Config) IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, suffix := range c.SourceSuffixes {
		if ext == strings.ToLower(suffix) {
			return true
		}
	}
	return false
}
