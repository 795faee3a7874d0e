package guide

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mark3labs/runway/internal/snippet"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(filepath.Join(t.TempDir(), "guides"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st
}

func TestFileStore_SaveLoad(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	g := build(t)
	rec, err := st.Save(g)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !ValidSlug(rec.Slug) {
		t.Fatalf("invalid slug %q", rec.Slug)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Fatalf("invalid record id %q: %v", rec.ID, err)
	}
	if rec.APIName != "Pet API" || rec.ViewCount != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}

	loaded, err := st.Load(rec.Slug)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ViewCount != 1 {
		t.Fatalf("expected one view, got %d", loaded.ViewCount)
	}
	if loaded.Guide.Auth == nil || loaded.Guide.Auth.Scheme == nil {
		t.Fatalf("auth scheme was not restored: %+v", loaded.Guide.Auth)
	}
	want, _ := Markdown(g)
	got, err := Markdown(loaded.Guide)
	if err != nil || got != want {
		t.Fatalf("stored guide renders differently (%v):\n%s\nwant:\n%s", err, got, want)
	}

	again, _ := st.Load(rec.Slug)
	if again.ViewCount != 2 {
		t.Fatalf("expected two views, got %d", again.ViewCount)
	}
}

func TestFileStore_RebuildAfterLoad(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	rec, _ := st.Save(build(t, WithFormats(snippet.Curl)))
	loaded, err := st.Load(rec.Slug)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	next, err := Rebuild(loaded.Guide, "POST", "/pets")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(next.Snippets) != 1 || next.Snippets[0].Format != snippet.Curl {
		t.Fatalf("expected the stored formats to carry over, got %+v", next.Snippets)
	}
}

func TestFileStore_ListAndDelete(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	first, _ := st.Save(build(t))
	second, _ := st.Save(build(t))
	if err := os.WriteFile(filepath.Join(st.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	list, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Slug != second.Slug || list[1].Slug != first.Slug {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Endpoint != "GET /health" {
		t.Fatalf("unexpected endpoint %q", list[0].Endpoint)
	}

	if err := st.Delete(first.Slug); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Load(first.Slug); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Delete(first.Slug); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFileStore_RejectsBadSlugs(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	for _, slug := range []string{"", "../../etc", "ABCDEFGH", "short"} {
		if _, err := st.Load(slug); !errors.Is(err, ErrNotFound) {
			t.Errorf("%q: expected ErrNotFound, got %v", slug, err)
		}
	}
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	t.Parallel()
	if _, err := NewFileStore(" "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultStoreDir_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(StoreDirEnv, dir)
	got, err := DefaultStoreDir()
	if err != nil || got != dir {
		t.Fatalf("expected %s, got %s (%v)", dir, got, err)
	}
}

func TestNewSlug(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := NewSlug()
		if err != nil {
			t.Fatalf("slug: %v", err)
		}
		if !ValidSlug(s) {
			t.Fatalf("invalid slug %q", s)
		}
		seen[s] = true
	}
	if len(seen) < 45 {
		t.Fatalf("slugs are not random enough: %d unique", len(seen))
	}
}
