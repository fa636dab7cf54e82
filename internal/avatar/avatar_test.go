package avatar_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geocoder89/contacthub/internal/avatar"
)

func TestDefaultURLIsDeterministic(t *testing.T) {
	a := avatar.DefaultURL("a@x.com")
	b := avatar.DefaultURL("a@x.com")

	if a != b {
		t.Fatalf("same email produced different URLs: %q vs %q", a, b)
	}

	if a == avatar.DefaultURL("b@x.com") {
		t.Fatal("different emails produced the same URL")
	}

	if !strings.Contains(a, "gravatar.com/avatar/") {
		t.Errorf("unexpected URL shape: %q", a)
	}
	if !strings.Contains(a, "s=250") || !strings.Contains(a, "d=identicon") {
		t.Errorf("missing default options: %q", a)
	}
}

func TestDiskStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := avatar.NewDiskStore(dir)

	ref, err := store.Save(context.Background(), "selfie.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(ref, "/avatars/") {
		t.Fatalf("ref = %q, want /avatars/ prefix", ref)
	}
	if !strings.HasSuffix(ref, ".png") {
		t.Errorf("extension not kept: %q", ref)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/avatars/")))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("bytes not stored verbatim: %q", data)
	}
}

func TestDiskStoreNamesNeverCollide(t *testing.T) {
	store := avatar.NewDiskStore(t.TempDir())
	ctx := context.Background()

	first, err := store.Save(ctx, "a.png", "image/png", strings.NewReader("1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := store.Save(ctx, "a.png", "image/png", strings.NewReader("2"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if first == second {
		t.Fatalf("same upload name produced the same reference %q", first)
	}
}
