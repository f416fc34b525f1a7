package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gotd/td/session"
)

func TestSessionStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileSessionStorage(dir, 42, "+4915211111111")
	if err != nil {
		t.Fatalf("NewFileSessionStorage: %v", err)
	}

	ctx := context.Background()

	if _, err := storage.LoadSession(ctx); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("LoadSession on empty storage = %v, want session.ErrNotFound", err)
	}
	if storage.Exists() {
		t.Error("Exists must be false before the first store")
	}

	data := []byte(`{"Version":1}`)
	if err := storage.StoreSession(ctx, data); err != nil {
		t.Fatalf("StoreSession: %v", err)
	}

	loaded, err := storage.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if string(loaded) != string(data) {
		t.Errorf("loaded %q, want %q", loaded, data)
	}
	if !storage.Exists() {
		t.Error("Exists must be true after store")
	}
}

func TestSessionStoragePathLayout(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileSessionStorage(dir, 42, "+4915211111111")
	if err != nil {
		t.Fatalf("NewFileSessionStorage: %v", err)
	}

	want := filepath.Join(dir, "42", "session_+4915211111111.json")
	if storage.Path() != want {
		t.Errorf("Path = %q, want %q", storage.Path(), want)
	}
}

func TestMaskPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"+4915211111111": "+4**********11",
		"+49":            "***",
		"":               "***",
	}
	for in, want := range cases {
		if got := maskPhoneNumber(in); got != want {
			t.Errorf("maskPhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
