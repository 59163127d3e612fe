// Package blobstore keeps canonical event blobs in content-addressed storage.
package blobstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/snappy"

	"github.com/okian/turforacle/pkg/metrics"
)

// BlobStore is an opaque put/get service addressed by content root.
type BlobStore interface {
	// Put stores data and returns its root.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the data stored under root, or ErrNotFound.
	Get(ctx context.Context, root string) ([]byte, error)
}

// Root is the 0x-prefixed keccak-256 hex of the raw bytes.
func Root(data []byte) string {
	return crypto.Keccak256Hash(data).Hex()
}

// key is the object name for a root: lowercase hex without the prefix.
func key(root string) (string, error) {
	k := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(root, "0x"), "0X"))
	if len(k) != 64 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoot, root)
	}
	for _, c := range k {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidRoot, root)
		}
	}
	return k, nil
}

func encode(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// decode unpacks a stored object and checks it still hashes to root.
func decode(root string, stored []byte) ([]byte, error) {
	data, err := snappy.Decode(nil, stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !strings.EqualFold(Root(data), "0x"+strings.TrimPrefix(strings.TrimPrefix(root, "0x"), "0X")) {
		return nil, fmt.Errorf("%w: content does not match %s", ErrCorrupt, root)
	}
	return data, nil
}

func observe(err error) {
	metrics.RecordBlobPut(err == nil)
}
