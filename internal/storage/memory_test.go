package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	content := "hello blob"

	obj, err := store.Store(context.Background(), strings.NewReader(content), int64(len(content)), "text/plain")
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	expected := sha256.Sum256([]byte(content))
	if obj.ContentHash != hex.EncodeToString(expected[:]) {
		t.Fatalf("hash mismatch: %s", obj.ContentHash)
	}
	if obj.Size != int64(len(content)) {
		t.Fatalf("size mismatch: %d", obj.Size)
	}
	if obj.Ref == "" {
		t.Fatal("expected a non-empty ref")
	}

	rc, err := store.Open(context.Background(), obj.Ref)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != content {
		t.Fatalf("content mismatch: %q", string(data))
	}
}

func TestMemoryStoreDistinctRefsForIdenticalContent(t *testing.T) {
	store := NewMemoryStore()

	a, _ := store.Store(context.Background(), strings.NewReader("same"), 4, "text/plain")
	b, _ := store.Store(context.Background(), strings.NewReader("same"), 4, "text/plain")

	if a.Ref == b.Ref {
		t.Fatal("refs must be unique even for identical bytes")
	}
	if a.ContentHash != b.ContentHash {
		t.Fatal("identical bytes must hash identically")
	}
}

func TestMemoryStoreOpenMissing(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Open(context.Background(), "no-such-ref"); !errors.Is(err, ErrRefNotFound) {
		t.Fatalf("expected ErrRefNotFound, got %v", err)
	}
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore()

	obj, _ := store.Store(context.Background(), strings.NewReader("bye"), 3, "text/plain")
	if err := store.Delete(context.Background(), obj.Ref); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(context.Background(), obj.Ref); err != nil {
		t.Fatalf("repeat delete must be a no-op, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, %d objects remain", store.Len())
	}
}

// The digest reader caps each pull at its chunk size; the hash of a payload
// spanning many chunks must match a one-shot sha256.
func TestDigestReaderLargePayload(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 16*1024) // 256 KiB

	digest := newDigestReader(bytes.NewReader(payload))
	consumed, err := io.ReadAll(digest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(consumed, payload) {
		t.Fatal("digest reader must pass bytes through unchanged")
	}

	expected := sha256.Sum256(payload)
	if digest.Sum() != hex.EncodeToString(expected[:]) {
		t.Fatal("chunked hash diverged from one-shot hash")
	}
	if digest.BytesRead() != int64(len(payload)) {
		t.Fatalf("byte count mismatch: %d", digest.BytesRead())
	}
}
