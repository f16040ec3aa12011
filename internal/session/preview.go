package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrPreviewStoreClosed is returned by Create after Close
var ErrPreviewStoreClosed = errors.New("preview store closed")

// PreviewStore owns local preview copies of selected images. Every handle
// returned by Create must be released with Cleanup; Close releases the rest.
type PreviewStore struct {
	mu      sync.Mutex
	dir     string
	handles map[string]string // handle -> path
	closed  bool
}

// NewPreviewStore creates a store backed by a private temp directory
func NewPreviewStore() (*PreviewStore, error) {
	dir, err := os.MkdirTemp("", "ortho-preview-*")
	if err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return &PreviewStore{
		dir:     dir,
		handles: map[string]string{},
	}, nil
}

// Create writes a preview copy of file and returns its handle
func (s *PreviewStore) Create(file ImageFile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrPreviewStoreClosed
	}

	handle := "preview_" + uuid.NewString()
	name := handle + strings.ToLower(filepath.Ext(file.Name))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, file.Data, 0o600); err != nil {
		return "", fmt.Errorf("write preview: %w", err)
	}

	s.handles[handle] = path
	return handle, nil
}

// Path returns the file backing a live handle
func (s *PreviewStore) Path(handle string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.handles[handle]
	return path, ok
}

// Cleanup releases a handle. Releasing an unknown handle is a no-op.
func (s *PreviewStore) Cleanup(handle string) error {
	s.mu.Lock()
	path, ok := s.handles[handle]
	delete(s.handles, handle)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove preview: %w", err)
	}
	return nil
}

// Len is the number of live handles
func (s *PreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Close releases every handle and removes the store directory
func (s *PreviewStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.handles = map[string]string{}
	return os.RemoveAll(s.dir)
}

// Selection holds at most one selected image and its preview. A new
// selection releases the previous preview before acquiring its own.
type Selection struct {
	mu     sync.Mutex
	store  *PreviewStore
	file   *ImageFile
	handle string
}

// NewSelection creates an empty selection over store
func NewSelection(store *PreviewStore) *Selection {
	return &Selection{store: store}
}

// Select replaces the current selection with file
func (s *Selection) Select(file ImageFile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.releaseLocked(); err != nil {
		return "", err
	}

	handle, err := s.store.Create(file)
	if err != nil {
		return "", err
	}
	s.file = &file
	s.handle = handle
	return handle, nil
}

// Current returns the selected file and its preview handle
func (s *Selection) Current() (ImageFile, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ImageFile{}, "", false
	}
	return *s.file, s.handle, true
}

// Clear releases the current selection, if any
func (s *Selection) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

func (s *Selection) releaseLocked() error {
	if s.file == nil {
		return nil
	}
	handle := s.handle
	s.file = nil
	s.handle = ""
	return s.store.Cleanup(handle)
}
