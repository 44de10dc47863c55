package config

import (
	"errors"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

// ExampleYAML is the configuration written by `refdocs init`.
const ExampleYAML = `# refdocs configuration
global:
  dirname: ref
  library_root: .
  library_name: mylib
  repository: https://github.com/example/mylib
  source_prefix: ""
  template: ""

directory_titles:
  ref: Reference
  core: Core API
  integrations: Integrations

# Walked on disk but left out of the manifest.
skip: []

# Written by another tool; never purged.
external: []

sections:
  names: [CORE, INTEGRATIONS]

CORE:
  dirname: core
  title: Core API
  slug: ""
  elements: Client, Open, Config
  add_from: ""
  add_elements: ""
  module_doc_from: self

INTEGRATIONS:
  dirname: ""
  title: Integrations
  slug: ""
  elements: Exporter@integrations.export
  add_from: ""
  add_elements: ""
  module_doc_from: ""
`

// WriteExample writes ExampleYAML to path. An existing file is only replaced
// when force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
				WithContext("path", path).
				Build()
		} else if !errors.Is(err, os.ErrNotExist) {
			return ferrors.FileSystemError("failed to stat configuration file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ferrors.FileSystemError("failed to create configuration directory").
				WithCause(err).
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(path, []byte(ExampleYAML), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
