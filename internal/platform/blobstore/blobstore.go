// Package blobstore stores raw uploaded artifacts (prescription scans,
// X-ray images). The document database keeps only a reference to the
// stored path; bytes live here.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrMissingFileName = errors.New("file name is required")
)

// BlobInfo describes a stored artifact.
type BlobInfo struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the contract for raw-file storage backends.
type Store interface {
	Save(ctx context.Context, fileName string, content io.Reader) (*BlobInfo, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// Disk stores blobs as files under a base directory. Each blob gets a
// uuid-prefixed name so uploads with identical filenames never collide.
type Disk struct {
	baseDir string

	mu    sync.RWMutex
	index map[string]*BlobInfo
}

func NewDisk(baseDir string) (*Disk, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", baseDir, err)
	}
	return &Disk{
		baseDir: baseDir,
		index:   make(map[string]*BlobInfo),
	}, nil
}

func (d *Disk) Save(_ context.Context, fileName string, content io.Reader) (*BlobInfo, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrMissingFileName
	}

	id := uuid.New().String()
	// Keep only the base name; a traversal path in the upload must not
	// escape the upload directory.
	safeName := filepath.Base(fileName)
	path := filepath.Join(d.baseDir, id+"_"+safeName)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create blob file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), content)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write blob: %w", err)
	}

	info := &BlobInfo{
		ID:        id,
		FileName:  safeName,
		Path:      path,
		Size:      size,
		Hash:      fmt.Sprintf("%x", hasher.Sum(nil)),
		CreatedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	d.index[id] = info
	d.mu.Unlock()

	return info, nil
}

func (d *Disk) Open(_ context.Context, id string) (io.ReadCloser, error) {
	d.mu.RLock()
	info, ok := d.index[id]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrBlobNotFound
	}
	f, err := os.Open(info.Path)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	return f, nil
}

func (d *Disk) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	info, ok := d.index[id]
	if ok {
		delete(d.index, id)
	}
	d.mu.Unlock()
	if !ok {
		return ErrBlobNotFound
	}
	if err := os.Remove(info.Path); err != nil {
		return fmt.Errorf("remove blob %s: %w", id, err)
	}
	return nil
}

// Memory is an in-memory Store for tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]*memBlob
}

type memBlob struct {
	info    BlobInfo
	content []byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]*memBlob)}
}

func (m *Memory) Save(_ context.Context, fileName string, content io.Reader) (*BlobInfo, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrMissingFileName
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	id := uuid.New().String()
	info := BlobInfo{
		ID:        id,
		FileName:  filepath.Base(fileName),
		Path:      "mem://" + id,
		Size:      int64(len(data)),
		Hash:      fmt.Sprintf("%x", sha256.Sum256(data)),
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.blobs[id] = &memBlob{info: info, content: data}
	m.mu.Unlock()

	return &info, nil
}

func (m *Memory) Open(_ context.Context, id string) (io.ReadCloser, error) {
	m.mu.RLock()
	b, ok := m.blobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b.content)), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(m.blobs, id)
	return nil
}
