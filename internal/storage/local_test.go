package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()

	store, err := NewLocalStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return store
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "student-1", "solution.pdf", strings.NewReader("answer content"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(key, "student-1_") || !strings.HasSuffix(key, "_solution.pdf") {
		t.Errorf("unexpected key format: %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(content) != "answer content" {
		t.Errorf("got %q, want %q", content, "answer content")
	}
}

func TestLocalStore_DisallowedExtension(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"malware.exe", "script.sh", "noext"} {
		_, err := store.Save(context.Background(), "student-1", name, strings.NewReader("x"))
		if !errors.Is(err, ErrDisallowedExtension) {
			t.Errorf("Save(%q): expected ErrDisallowedExtension, got %v", name, err)
		}
	}
}

func TestLocalStore_EmptyFilename(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), "student-1", "   ", strings.NewReader("x"))
	if !errors.Is(err, ErrEmptyFilename) {
		t.Errorf("expected ErrEmptyFilename, got %v", err)
	}
}

func TestLocalStore_PathTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Traversal segments are stripped down to the base name
	key, err := store.Save(ctx, "student-1", "../../etc/passwd.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if strings.Contains(key, "..") || strings.Contains(key, "/") {
		t.Errorf("key leaks path segments: %q", key)
	}
	if !strings.HasSuffix(key, "_passwd.txt") {
		t.Errorf("unexpected key: %q", key)
	}
}

func TestLocalStore_SpacesInFilename(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Save(context.Background(), "student-1", "my answer.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if strings.Contains(key, " ") {
		t.Errorf("key contains spaces: %q", key)
	}
}

func TestLocalStore_Remove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "student-1", "answer.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Open(ctx, key); err == nil {
		t.Error("expected Open to fail after Remove")
	}

	// Removing a missing key is not an error
	if err := store.Remove(ctx, key); err != nil {
		t.Errorf("Remove of missing key should be a no-op, got %v", err)
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"photo.JPG", true},
		{"archive.zip", true},
		{"notes.txt", true},
		{"binary.exe", false},
		{"page.html", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Allowed(tt.name); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
