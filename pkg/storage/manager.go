package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager owns the directory a run writes its report files into
type Manager struct {
	outputDir string
	written   map[string]int64
	mu        sync.RWMutex
}

// NewManager creates a storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		written:   make(map[string]int64),
	}, nil
}

// ForFile creates a manager for the directory that holds path
func ForFile(path string) (*Manager, error) {
	return NewManager(filepath.Dir(path))
}

// Path returns the absolute-or-relative path of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, filepath.Base(name))
}

// Exists reports whether name is present in the output directory
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// WriteFile atomically replaces name in the output directory with whatever
// write produces.
func (m *Manager) WriteFile(name string, write func(w io.Writer) error) (string, error) {
	path := m.Path(name)

	n, err := WriteAtomic(path, write)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.written[filepath.Base(name)] = n
	m.mu.Unlock()

	return path, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// BytesWritten returns the size of name as written by this manager
func (m *Manager) BytesWritten(name string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.written[filepath.Base(name)]
	return n, ok
}

// WriteAtomic writes to a temporary file next to path and renames it into
// place once write succeeds and the data is synced. A failed write leaves
// any previous file untouched.
func WriteAtomic(path string, write func(w io.Writer) error) (int64, error) {
	return WriteAtomicMode(path, 0644, write)
}

// WriteAtomicMode is WriteAtomic with explicit file permissions
func WriteAtomicMode(path string, perm os.FileMode, write func(w io.Writer) error) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tmp.Name()

	counter := &countingWriter{w: tmp}
	buf := bufio.NewWriter(counter)

	if err := write(buf); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return 0, err
	}

	if err := buf.Flush(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to flush %s: %w", path, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to sync %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
