package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// File persists a single JSON document. Saves are written to a temporary file in the
// target directory and renamed into place, so readers never observe a partial document.
type File struct {
	path string
}

// NewFile creates a file storage for name inside dir.
func NewFile(dir, name string) *File {
	return &File{path: filepath.Join(dir, name)}
}

// Path returns the location of the document.
func (f *File) Path() string {
	return f.path
}

// Exists checks if the document has been saved before.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)

	return err == nil
}

// Save atomically replaces the document with the JSON encoding of v.
func (f *File) Save(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode document")
	}

	dir := filepath.Dir(f.path)

	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()

		return errors.Wrap(err, "failed to write temporary file")
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return errors.Wrap(err, "failed to sync temporary file")
	}

	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary file")
	}

	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrapf(err, "failed to move document into %s", f.path)
	}

	return nil
}

// Load decodes the document into v.
func (f *File) Load(v interface{}) error {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", f.path)
	}

	if err = json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "failed to decode %s", f.path)
	}

	return nil
}
