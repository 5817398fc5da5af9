package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "ttscraper/pkg/errors"
)

// PartialSuffix marks in-progress downloads; such files never count as present.
const PartialSuffix = ".part"

// Manager owns the on-disk layout <base>/<username>/<filename>.
//
// Presence checks always list the directory instead of caching, so a file
// written by an earlier run (or another process) is seen immediately.
type Manager struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a storage manager rooted at baseDir, creating it if needed
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to create output directory")
	}

	return &Manager{
		baseDir: baseDir,
		locks:   make(map[string]*pathLock),
	}, nil
}

// BaseDir returns the root output directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// UserDir returns the destination directory for a profile's media
func (m *Manager) UserDir(username string) string {
	return filepath.Join(m.baseDir, username)
}

// EnsureDir creates dir if absent. Concurrent calls for the same directory all succeed.
func (m *Manager) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to create directory "+dir)
	}
	return nil
}

// HasFile lists dir and reports whether filename is among its entries.
// A missing directory means the file is not present.
func (m *Manager) HasFile(dir, filename string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to read directory")
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), PartialSuffix) {
			continue
		}
		if entry.Name() == filename {
			return true, nil
		}
	}
	return false, nil
}

// Save streams r into dir/filename. Data goes to a uniquely named partial
// file first and is renamed into place only after the copy completed, so an
// interrupted transfer never leaves a file under the final name.
func (m *Manager) Save(dir, filename string, r io.Reader) (int64, error) {
	out, err := os.CreateTemp(dir, filename+".*"+PartialSuffix)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to create temporary file")
	}
	tempPath := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return written, apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to write "+filename)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return written, apperrors.Wrap(apperrors.ErrorTypeStorage, closeErr, "failed to close file")
	}

	if err := os.Rename(tempPath, filepath.Join(dir, filename)); err != nil {
		os.Remove(tempPath)
		return written, apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to rename temporary file")
	}

	return written, nil
}

// Lock serializes work on dir/filename and returns the matching unlock func.
// Callers hold it across the presence check and the write.
func (m *Manager) Lock(dir, filename string) func() {
	key := filepath.Join(dir, filename)

	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &pathLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// ListFiles returns the completed files in dir, ignoring partial downloads
func (m *Manager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrorTypeStorage, err, "failed to read directory")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), PartialSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
