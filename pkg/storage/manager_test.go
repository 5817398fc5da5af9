package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "ttscraper/pkg/errors"
)

func TestManagerSaveAndHasFile(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	dir := manager.UserDir("alice")
	if err := manager.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	present, err := manager.HasFile(dir, "123.mp4")
	if err != nil {
		t.Fatalf("HasFile failed: %v", err)
	}
	if present {
		t.Error("Expected file to be absent before save")
	}

	data := []byte("video bytes")
	n, err := manager.Save(dir, "123.mp4", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("Save wrote %d bytes, want %d", n, len(data))
	}

	content, err := os.ReadFile(filepath.Join(dir, "123.mp4"))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Error("File content does not match expected data")
	}

	present, err = manager.HasFile(dir, "123.mp4")
	if err != nil {
		t.Fatalf("HasFile failed: %v", err)
	}
	if !present {
		t.Error("Expected file to be present after save")
	}
}

func TestHasFileMissingDirectory(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	present, err := manager.HasFile(manager.UserDir("nobody"), "1.mp4")
	if err != nil {
		t.Errorf("Expected no error for missing directory, got %v", err)
	}
	if present {
		t.Error("Expected false for missing directory")
	}
}

func TestHasFileSeesExternalWrites(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	dir := manager.UserDir("bob")
	if err := manager.EnsureDir(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "9.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	present, err := manager.HasFile(dir, "9.mp4")
	if err != nil || !present {
		t.Errorf("Expected file written outside the manager to be present, got %v, %v", present, err)
	}
}

var errReset = errors.New("connection reset")

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errReset
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	dir := manager.UserDir("carol")
	if err := manager.EnsureDir(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Save(dir, "5.mp4", &failingReader{}); err == nil {
		t.Fatal("Expected Save to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty directory after failed save, found %d entries", len(entries))
	}
}

func TestHasFileIgnoresPartialFiles(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	dir := manager.UserDir("dave")
	if err := manager.EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "7.mp4.123"+PartialSuffix), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	present, _ := manager.HasFile(dir, "7.mp4")
	if present {
		t.Error("Partial file must not count as downloaded")
	}

	files, err := manager.ListFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("ListFiles returned %v, want none", files)
	}
}

func TestEnsureDirConcurrent(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	dir := manager.UserDir("eve")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- manager.EnsureDir(dir)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Concurrent EnsureDir failed: %v", err)
		}
	}
}

func TestLockSerializesSameFilename(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	unlock := manager.Lock("d", "1.mp4")

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		release := manager.Lock("d", "1.mp4")
		close(acquired)
		release()
		close(released)
	}()

	// A different filename is not blocked.
	other := manager.Lock("d", "2.mp4")
	other()

	select {
	case <-acquired:
		t.Fatal("Second lock on the same filename acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Second lock was never acquired")
	}
	<-released

	manager.mu.Lock()
	remaining := len(manager.locks)
	manager.mu.Unlock()
	if remaining != 0 {
		t.Errorf("Expected lock table to be empty, has %d entries", remaining)
	}
}

func TestFailuresAreStorageErrors(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	blocker := filepath.Join(manager.BaseDir(), "dave")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(blocker, "media")

	if err := manager.EnsureDir(nested); !apperrors.IsType(err, apperrors.ErrorTypeStorage) {
		t.Errorf("EnsureDir error = %v, want storage error", err)
	}
	if _, err := manager.HasFile(blocker, "1.mp4"); !apperrors.IsType(err, apperrors.ErrorTypeStorage) {
		t.Errorf("HasFile error = %v, want storage error", err)
	}
	if _, err := manager.Save(nested, "1.mp4", bytes.NewReader([]byte("x"))); !apperrors.IsType(err, apperrors.ErrorTypeStorage) {
		t.Errorf("Save error = %v, want storage error", err)
	}

	dir := manager.UserDir("erin")
	if err := manager.EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	_, err = manager.Save(dir, "2.mp4", &failingReader{})
	if !apperrors.IsType(err, apperrors.ErrorTypeStorage) {
		t.Errorf("Save error = %v, want storage error", err)
	}
	if !errors.Is(err, errReset) {
		t.Errorf("Save error = %v, want the reader failure in its chain", err)
	}
}
