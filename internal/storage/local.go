package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage handles the ledger data directory and the export directory on the local filesystem
type LocalStorage struct {
	basePath   string
	exportPath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath, exportPath string) (*LocalStorage, error) {
	// Ensure the directories exist
	for _, dir := range []string{basePath, exportPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &LocalStorage{basePath: basePath, exportPath: exportPath}, nil
}

// GetFullPath returns the absolute path of a file in the data directory
func (s *LocalStorage) GetFullPath(name string) string {
	return filepath.Join(s.basePath, name)
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(name string) bool {
	_, err := os.Stat(s.GetFullPath(name))
	return err == nil
}

// GetSize returns the size of a file in bytes
func (s *LocalStorage) GetSize(name string) (int64, error) {
	info, err := os.Stat(s.GetFullPath(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Clone copies src to dst byte for byte, keeping the modification time, and
// verifies the copy is non-empty
func (s *LocalStorage) Clone(src, dst string) error {
	srcPath := s.GetFullPath(src)
	dstPath := s.GetFullPath(dst)

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dstPath)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to flush %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	_ = os.Chtimes(dstPath, time.Now(), info.ModTime())

	size, err := s.GetSize(dst)
	if err != nil {
		return fmt.Errorf("clone %s missing after copy: %w", dst, err)
	}
	if size == 0 || size != info.Size() {
		return fmt.Errorf("clone %s has %d bytes, source has %d", dst, size, info.Size())
	}
	return nil
}

// Rename moves a file inside the data directory
func (s *LocalStorage) Rename(from, to string) error {
	return os.Rename(s.GetFullPath(from), s.GetFullPath(to))
}

// Delete removes a file from the data directory
func (s *LocalStorage) Delete(name string) error {
	return os.Remove(s.GetFullPath(name))
}

// ReadJSON decodes a JSON file of the data directory. It returns os.ErrNotExist
// (wrapped) when the file is absent.
func (s *LocalStorage) ReadJSON(name string, v any) error {
	data, err := os.ReadFile(s.GetFullPath(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// WriteJSON stores v atomically through a temporary file
func (s *LocalStorage) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	tmp := s.GetFullPath(name + ".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.GetFullPath(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// IsNotExist reports whether err means the file is absent
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// SaveExport writes bytes into the export directory, organised by month, and
// returns the relative path
func (s *LocalStorage) SaveExport(data []byte, filename string) (string, error) {
	dir := filepath.Join(s.exportPath, time.Now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath, _ := filepath.Rel(s.exportPath, filePath)
	return relPath, nil
}
