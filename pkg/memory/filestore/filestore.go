// Package filestore persists whole YAML documents with file locking. Every
// write rewrites the complete document, so callers follow a
// read-modify-rewrite discipline.
package filestore

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"gopkg.in/yaml.v3"
)

// ErrNotExist is returned by Read when the document file is missing
var ErrNotExist = errors.New("document does not exist")

// Read decodes the YAML document at path into v
func Read(path string, v any) error {
	data, err := lockedfile.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return errors.Wrapf(err, "failed to read %s", path)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return errors.Errorf("document %s is empty", path)
	}

	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}
	return nil
}

// Write encodes v as YAML and replaces the document at path, creating
// parent directories as needed
func Write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create memory directory")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode document")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "failed to encode document")
	}

	if err := lockedfile.Write(path, &buf, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Exists reports whether a non-empty document is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Remove deletes the document at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", path)
	}
	return nil
}
