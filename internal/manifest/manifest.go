// Package manifest records what a generation run consumed and produced.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReportFile is the run report's file name, written next to the manifest.
const ReportFile = "refdocs-report.json"

// Status is the overall outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// RunReport is the complete record of one generation run.
type RunReport struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Duration  int64     `json:"duration_ms"`
	Inputs    Inputs    `json:"inputs"`
	Sections  []Section `json:"sections"`
	Outputs   Outputs   `json:"outputs"`
	Errors    []string  `json:"errors,omitempty"`
}

// Inputs captures everything the run read.
type Inputs struct {
	ConfigPath  string `json:"config_path,omitempty"`
	ConfigHash  string `json:"config_hash"`
	LibraryRoot string `json:"library_root"`
	LibraryName string `json:"library_name,omitempty"`
	Commit      string `json:"commit,omitempty"`
	Branch      string `json:"branch,omitempty"`
}

// Section summarizes one resolved section.
type Section struct {
	Name     string   `json:"name"`
	Pages    int      `json:"pages"`
	Imported int      `json:"imported,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Failure is a page that could not be rendered.
type Failure struct {
	Path    string `json:"path"`
	Section string `json:"section"`
	Symbol  string `json:"symbol,omitempty"`
	Message string `json:"message"`
}

// Collision is one output path claimed by several pages.
type Collision struct {
	Path      string   `json:"path"`
	Claimants []string `json:"claimants"`
}

// Outputs captures everything the run wrote or preserved.
type Outputs struct {
	BaseDir      string      `json:"base_dir"`
	Manifest     string      `json:"manifest,omitempty"`
	PagesWritten []string    `json:"pages_written"`
	Failed       []Failure   `json:"failed,omitempty"`
	Collisions   []Collision `json:"collisions,omitempty"`
	PurgedDirs   []string    `json:"purged_dirs,omitempty"`
	ExternalDirs []string    `json:"external_dirs,omitempty"`
	BrokenLinks  []string    `json:"broken_links,omitempty"`
}

// ToJSON serializes the report.
func (r *RunReport) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run report: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a report.
func FromJSON(data []byte) (*RunReport, error) {
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal run report: %w", err)
	}
	return &r, nil
}

// Load reads a report from disk.
func Load(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// WriteFile persists the report with a trailing newline.
func (r *RunReport) WriteFile(path string) error {
	data, err := r.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// InputsHash is a deterministic hash of the run inputs. Two runs with equal
// hashes read the same configuration against the same library revision.
func (r *RunReport) InputsHash() (string, error) {
	data, err := json.Marshal(r.Inputs)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}
