// Package storagetest provides an in-memory storage.Storage for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/flowforge/storage"
)

type memFile struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Memory is a storage.Storage backed by a map. Safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	files     map[string]*memFile
	uploadErr error
	// failLeft is how many more uploads fail with uploadErr; -1 means all.
	failLeft int
	uploads  int
	attempts int
}

var _ storage.Storage = (*Memory)(nil)

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memFile)}
}

// FailUploads makes every following Upload return err. A nil err restores
// normal behavior.
func (m *Memory) FailUploads(err error) *Memory {
	return m.FailNextUploads(-1, err)
}

// FailNextUploads makes the next n uploads return err. A negative n fails
// every upload.
func (m *Memory) FailNextUploads(n int, err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErr = err
	m.failLeft = n
	return m
}

// Attempts returns how many times Upload was called.
func (m *Memory) Attempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attempts
}

// Uploads returns how many uploads succeeded.
func (m *Memory) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}

// Keys returns every stored key, sorted.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns the stored bytes of key.
func (m *Memory) Data(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.data...), true
}

func (m *Memory) Upload(_ context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload data: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.uploadErr != nil && m.failLeft != 0 {
		if m.failLeft > 0 {
			m.failLeft--
		}
		return m.uploadErr
	}
	m.files[key] = &memFile{data: data, contentType: mime.TypeByExtension(path.Ext(key)), modTime: time.Now()}
	m.uploads++
	return nil
}

func (m *Memory) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[key]
	return ok, nil
}

func (m *Memory) URL(_ context.Context, key string) (string, error) {
	return "mem://" + key, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []storage.FileInfo
	for key, f := range m.files {
		if strings.HasPrefix(key, prefix) {
			result = append(result, storage.FileInfo{
				Path:         key,
				Size:         int64(len(f.data)),
				LastModified: f.modTime,
				ContentType:  f.contentType,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}
