package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const objectSuffix = ".sz"

// LocalStore keeps snappy-compressed blobs as files in one directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put implements BlobStore. Writing the same content twice is a no-op.
func (s *LocalStore) Put(ctx context.Context, data []byte) (root string, err error) {
	defer func() { observe(err) }()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root = Root(data)
	k, _ := key(root)
	path := filepath.Join(s.dir, k+objectSuffix)
	if _, statErr := os.Stat(path); statErr == nil {
		return root, nil
	}

	tmp, err := os.CreateTemp(s.dir, k+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(encode(data)); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return root, nil
}

// Get implements BlobStore.
func (s *LocalStore) Get(ctx context.Context, root string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := key(root)
	if err != nil {
		return nil, err
	}
	stored, err := os.ReadFile(filepath.Join(s.dir, k+objectSuffix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(root, stored)
}
