package evidencias

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore persists artifact bytes, content-addressed by SHA-256. Keys have
// the form "sha256:<hex>". Puts are idempotent: storing the same bytes twice
// yields the same key and one stored object.
type BlobStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

func hashKey(data []byte) (key, hexDigest string) {
	sum := sha256.Sum256(data)
	hexDigest = hex.EncodeToString(sum[:])
	return "sha256:" + hexDigest, hexDigest
}

func parseKey(key string) (string, error) {
	raw, ok := strings.CutPrefix(key, "sha256:")
	if !ok {
		return "", fmt.Errorf("clave de blob inválida: %q", key)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("clave de blob inválida: %w", err)
	}
	return raw, nil
}

// DiskStore keeps blobs under a single directory, one file per digest.
type DiskStore struct {
	dir string
}

// NewDiskStore ensures the base directory exists and returns a store over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de evidencias: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(hexDigest string) string {
	return filepath.Join(s.dir, hexDigest+".blob")
}

func (s *DiskStore) Put(_ context.Context, data []byte) (string, error) {
	key, digest := hashKey(data)
	dst := s.path(digest)
	if _, err := os.Stat(dst); err == nil {
		return key, nil
	}
	// Write to a sibling temp file and rename so readers never observe a
	// partial blob.
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("escribir blob: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("confirmar blob: %w", err)
	}
	return key, nil
}

func (s *DiskStore) Fetch(_ context.Context, key string) ([]byte, error) {
	digest, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(digest))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("leer blob %s: %w", key, err)
	}
	return data, nil
}

func (s *DiskStore) Remove(_ context.Context, key string) error {
	digest, err := parseKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(digest)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("eliminar blob %s: %w", key, err)
	}
	return nil
}
