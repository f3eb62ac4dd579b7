// Package manifest describes the files handed to the dataset uploader.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest constants.
const (
	Version          = 1
	CategorySplit    = "split"
	MetaImportedFrom = "imported_from"

	tempDirPattern   = "ei-s3-sync-"
	manifestFileName = "input.json"
	filePermissions  = 0o600
)

// ErrUnsupportedVersion is returned when reading a manifest of another version.
var ErrUnsupportedVersion = errors.New("unsupported manifest version")

// File is one entry of the manifest.
type File struct {
	Path     string            `json:"path"`
	Label    string            `json:"label"`
	Category string            `json:"category"`
	Metadata map[string]string `json:"metadata"`
}

// Manifest is the document read by the uploader.
type Manifest struct {
	Version int    `json:"version"`
	Files   []File `json:"files"`
}

// NewFile creates a manifest entry for a generated file.
func NewFile(absPath, label, provider string) File {
	return File{
		Path:     absPath,
		Label:    label,
		Category: CategorySplit,
		Metadata: map[string]string{
			MetaImportedFrom: provider,
		},
	}
}

// New creates a manifest for files. A nil slice is written as an empty array.
func New(files []File) Manifest {
	if files == nil {
		files = []File{}
	}

	return Manifest{
		Version: Version,
		Files:   files,
	}
}

// WriteTemp writes the manifest into a fresh temporary directory under
// baseDir (os.TempDir() when empty) and returns the file path. Removing the
// directory is up to the caller.
func WriteTemp(baseDir string, m Manifest) (string, error) {
	tempDir, mkErr := os.MkdirTemp(baseDir, tempDirPattern)
	if mkErr != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", mkErr)
	}

	path := filepath.Join(tempDir, manifestFileName)

	writeErr := Write(path, m)
	if writeErr != nil {
		return "", writeErr
	}

	return path, nil
}

// Write serializes the manifest to path.
func Write(path string, m Manifest) error {
	data, marshalErr := json.Marshal(m)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal manifest: %w", marshalErr)
	}

	writeErr := os.WriteFile(path, data, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write manifest '%s': %w", path, writeErr)
	}

	return nil
}

// Read loads a manifest from path.
func Read(path string) (Manifest, error) {
	var m Manifest

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return m, fmt.Errorf("failed to read manifest '%s': %w", path, readErr)
	}

	unmarshalErr := json.Unmarshal(data, &m)
	if unmarshalErr != nil {
		return m, fmt.Errorf("failed to unmarshal manifest '%s': %w", path, unmarshalErr)
	}

	if m.Version != Version {
		return m, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}

	return m, nil
}
