// Package yaml provides atomic YAML file I/O, schema headers and recovery of
// corrupted state files.
package yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"
)

const tempPattern = ".flowguide-tmp-*.yaml"

// contentCheck inspects the bytes that reached disk before they replace the
// target file.
type contentCheck func([]byte) error

// AtomicWrite marshals data and writes it with AtomicWriteRaw.
func AtomicWrite(path string, data any) error {
	content, err := yamlv3.Marshal(data)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return AtomicWriteRaw(path, content)
}

// AtomicWriteRaw replaces path with content, which must parse as YAML.
func AtomicWriteRaw(path string, content []byte) error {
	return replaceFile(path, content, parsesAsYAML)
}

// WriteStateFile replaces a state file. content must carry a schema header of
// fileType, so a bad encode never becomes the file recovery has to
// quarantine later.
func WriteStateFile(path, fileType string, content []byte) error {
	return replaceFile(path, content, func(written []byte) error {
		return ValidateSchemaHeaderFromBytes(written, fileType)
	})
}

// BackupPath is where the previous version of path is kept.
func BackupPath(path string) string {
	return path + ".bak"
}

// replaceFile stages content in a temp file next to path, checks what was
// written, keeps the current file as the backup and renames into place.
// The target is untouched when any step fails.
func replaceFile(path string, content []byte, check contentCheck) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	staged, err := stage(dir, content)
	if staged != "" {
		defer func() { _ = os.Remove(staged) }()
	}
	if err != nil {
		return err
	}

	written, err := os.ReadFile(staged)
	if err != nil {
		return fmt.Errorf("re-read staged file: %w", err)
	}
	if err := check(written); err != nil {
		return fmt.Errorf("rejected %s: %w", filepath.Base(path), err)
	}

	if err := keepBackup(path); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	if err := os.Rename(staged, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// stage writes content to a fresh temp file in dir. The returned name is set
// whenever a file was created, even on error, so the caller can remove it.
func stage(dir string, content []byte) (string, error) {
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if err := syncAndClose(f, content); err != nil {
		return f.Name(), fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), nil
}

func keepBackup(path string) error {
	current, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	f, err := os.OpenFile(BackupPath(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	return syncAndClose(f, current)
}

func syncAndClose(f *os.File, content []byte) error {
	_, err := f.Write(content)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func parsesAsYAML(content []byte) error {
	var v any
	return yamlv3.Unmarshal(content, &v)
}
