package attachment

import (
	"context"
	"io"
	"strings"
	"testing"
)

// TestStoreAndOpen tests the attachment round trip
func TestStoreAndOpen(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	ctx := context.Background()

	ref, err := store.Store(ctx, []byte("photo bytes"), "pothole.jpg")
	if err != nil {
		t.Fatalf("Failed to store attachment: %v", err)
	}

	if !strings.HasSuffix(ref, "_pothole.jpg") {
		t.Errorf("Expected reference to keep the original name, got %q", ref)
	}
	if strings.ContainsAny(ref, "/\\") {
		t.Errorf("Reference must be a bare filename, got %q", ref)
	}

	f, err := store.Open(ref)
	if err != nil {
		t.Fatalf("Failed to open attachment: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read attachment: %v", err)
	}
	if string(data) != "photo bytes" {
		t.Errorf("Expected stored bytes back, got %q", data)
	}
}

// TestStoreStripsDirectories tests that path components in the original
// name do not leak into the stored location
func TestStoreStripsDirectories(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	ref, err := store.Store(context.Background(), []byte("x"), "../../etc/passwd")
	if err != nil {
		t.Fatalf("Failed to store attachment: %v", err)
	}

	if strings.Contains(ref, "..") || strings.ContainsAny(ref, "/\\") {
		t.Errorf("Reference must not contain path components, got %q", ref)
	}
}

// TestOpenRejectsTraversal tests that references with path separators
// are rejected
func TestOpenRejectsTraversal(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	if _, err := store.Open("../secrets.txt"); err == nil {
		t.Error("Expected error for traversal reference")
	}
	if _, err := store.Open("sub/dir.txt"); err == nil {
		t.Error("Expected error for nested reference")
	}
}
