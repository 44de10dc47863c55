package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

// Format identifies the configuration syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// Environment variables consulted by the CLI.
const (
	EnvOutput   = "REFDOCS_OUTPUT"
	EnvLogLevel = "REFDOCS_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// FormatFromPath selects the configuration format from the file extension.
// Anything that is not .hcl is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return FormatHCL
	}
	return FormatYAML
}

// Load reads, expands and parses the configuration file at path. Relative
// library_root and template paths are resolved against the file's directory.
func Load(path string) (*Spec, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "configuration file not found").
				Fatal().
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.FileSystemError("failed to read configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	expanded := os.ExpandEnv(string(data))
	spec, err := parse([]byte(expanded), FormatFromPath(path), path)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	spec.Global.LibraryRoot = resolveRelative(base, spec.Global.LibraryRoot)
	spec.Global.Template = resolveRelative(base, spec.Global.Template)
	return spec, nil
}

// Parse parses configuration text without touching the filesystem or the
// environment.
func Parse(data []byte, format Format) (*Spec, error) {
	return parse(data, format, "config."+string(format))
}

func parse(data []byte, format Format, filename string) (*Spec, error) {
	var (
		doc *rawDocument
		err error
	)
	switch format {
	case FormatYAML, "":
		doc, err = decodeYAML(data)
	case FormatHCL:
		doc, err = decodeHCL(data, filename)
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration format %q", format)).Build()
	}
	if err != nil {
		return nil, err
	}
	return doc.build()
}

// loadEnvFiles loads .env files from the working directory and the
// configuration directory. Existing process variables are never overridden.
func loadEnvFiles(configDir string) {
	dirs := []string{"."}
	if configDir != "" && configDir != "." {
		dirs = append(dirs, configDir)
	}
	for _, dir := range dirs {
		for _, name := range envFiles {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := godotenv.Load(p); err != nil {
				slog.Warn("Failed to load environment file", "path", p, "error", err)
				continue
			}
			slog.Debug("Loaded environment file", "path", p)
		}
	}
}

func resolveRelative(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
