package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
)

// ErrRefNotFound is returned by Open when the referenced object does not
// exist. Delete never returns it: deleting a missing ref is a no-op.
var ErrRefNotFound = errors.New("storage: ref not found")

// StoredObject identifies persisted bytes: an opaque ref plus the sha256
// content hash and byte count observed while storing them.
type StoredObject struct {
	Ref         string `json:"ref"`
	ContentHash string `json:"contentHash"`
	Size        int64  `json:"size"`
}

// BlobStore persists and retrieves raw bytes. Store must make the bytes
// durable before returning; callers register metadata only afterwards.
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, size int64, contentType string) (StoredObject, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// digestChunkSize bounds how much of the stream is pulled per read, so the
// hash is computed incrementally regardless of file size.
const digestChunkSize = 32 * 1024

// digestReader hashes the stream as it is consumed.
type digestReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newDigestReader(r io.Reader) *digestReader {
	return &digestReader{r: r, h: sha256.New()}
}

func (d *digestReader) Read(p []byte) (int, error) {
	if len(p) > digestChunkSize {
		p = p[:digestChunkSize]
	}
	n, err := d.r.Read(p)
	if n > 0 {
		d.h.Write(p[:n])
		d.n += int64(n)
	}
	return n, err
}

func (d *digestReader) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

func (d *digestReader) BytesRead() int64 {
	return d.n
}
