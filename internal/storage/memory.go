package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Memory is an in-process backend for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	folders map[string]struct{}
	objects map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		folders: make(map[string]struct{}),
		objects: make(map[string][]byte),
	}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) EnsureFolder(ctx context.Context, path string) error {
	return ensureEach(ctx, path, func(_ context.Context, prefix string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, isFile := m.objects[prefix]; isFile {
			return fmt.Errorf("create folder %s: a file with that name exists", prefix)
		}
		m.folders[prefix] = struct{}{}
		return nil
	})
}

func (m *Memory) Exists(_ context.Context, path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}

func (m *Memory) Upload(_ context.Context, path string, data []byte, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if parent := parentOf(path); parent != "" {
		if _, ok := m.folders[parent]; !ok {
			return fmt.Errorf("upload %s: parent folder %s: %w", path, parent, ErrNotFound)
		}
	}
	if _, ok := m.objects[path]; ok && !overwrite {
		return ErrAlreadyExists
	}
	m.objects[path] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.objects, path)
	m.mu.Unlock()
	return nil
}

// Object returns a copy of the stored bytes at path.
func (m *Memory) Object(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[path]
	return append([]byte(nil), data...), ok
}

// Folders returns the number of folders created so far.
func (m *Memory) Folders() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.folders)
}

func parentOf(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return ""
	}
	return path[:i]
}
