// Package media stores uploaded images and checks object references.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
)

var ErrUnavailable = errors.New("media storage is not configured")

// Store is where post media and profile photos live. A ref is the object
// name returned by Upload.
type Store interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// objectName keeps the extension of the client's file name and nothing else.
func objectName(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 8 {
		ext = ""
	}
	return prefix + "/" + uuid.NewString() + ext
}

type Bucket struct {
	*storage.BucketHandle
	prefix string
}

func NewBucket(ctx context.Context, app *firebase.App, bucketName string) (*Bucket, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, err
	}
	handle, err := client.Bucket(bucketName)
	if err != nil {
		return nil, err
	}
	return &Bucket{BucketHandle: handle, prefix: "uploads"}, nil
}

func (b *Bucket) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	ref := objectName(b.prefix, name)
	w := b.Object(ref).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", ref, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", ref, err)
	}
	return ref, nil
}

func (b *Bucket) Exists(ctx context.Context, ref string) (bool, error) {
	if len(ref) == 0 {
		return false, nil
	}
	if _, err := b.Object(ref).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Memory keeps objects in process. Used by tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := objectName("uploads", name)
	m.mu.Lock()
	m.objects[ref] = data
	m.mu.Unlock()
	return ref, nil
}

func (m *Memory) Exists(_ context.Context, ref string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[ref]
	return ok, nil
}

// CheckRefs returns an error naming the first ref that store does not hold.
// A nil store accepts everything.
func CheckRefs(ctx context.Context, store Store, refs ...string) error {
	if store == nil {
		return nil
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		ok, err := store.Exists(ctx, ref)
		if err != nil {
			return fmt.Errorf("check media %s: %w", ref, err)
		}
		if !ok {
			return &UnknownRefError{Ref: ref}
		}
	}
	return nil
}

type UnknownRefError struct {
	Ref string
}

func (e *UnknownRefError) Error() string {
	return "unknown media reference " + e.Ref
}
