package guide

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no guide is stored under a slug.
var ErrNotFound = errors.New("guide not found")

// StoreDirEnv overrides DefaultStoreDir.
const StoreDirEnv = "RUNWAY_STORE_DIR"

// Record is a stored guide.
type Record struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	APIName   string    `json:"apiName"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	ViewCount int       `json:"viewCount"`
	Guide     *Guide    `json:"guide"`
}

// Summary is the listing form of a Record.
type Summary struct {
	Slug      string    `json:"slug"`
	APIName   string    `json:"apiName"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"createdAt"`
	ViewCount int       `json:"viewCount"`
}

// FileStore keeps one JSON file per guide in a directory.
type FileStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// DefaultStoreDir returns $RUNWAY_STORE_DIR, else a directory under the
// user configuration directory.
func DefaultStoreDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(StoreDirEnv)); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve store directory: %w", err)
	}
	return filepath.Join(base, "runway", "guides"), nil
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// Save stores g under a fresh slug and returns the record.
func (s *FileStore) Save(g *Guide) (*Record, error) {
	if g == nil || g.Spec == nil {
		return nil, errors.New("guide: nil guide")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var slug string
	for attempt := 0; ; attempt++ {
		candidate, err := NewSlug()
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
		if _, err := os.Stat(s.path(candidate)); errors.Is(err, os.ErrNotExist) {
			slug = candidate
			break
		}
		if attempt >= 10 {
			return nil, errors.New("could not allocate a unique slug")
		}
	}

	rec := &Record{
		ID:        uuid.NewString(),
		Slug:      slug,
		APIName:   g.Spec.Title,
		Source:    g.Source,
		CreatedAt: s.now().UTC(),
		Guide:     g,
	}
	if err := s.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Load returns the stored guide and counts the view.
func (s *FileStore) Load(slug string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(slug)
	if err != nil {
		return nil, err
	}
	rec.ViewCount++
	if err := s.write(rec); err != nil {
		return nil, err
	}
	rec.Guide.relink()
	return rec, nil
}

// List returns stored guides, newest first.
func (s *FileStore) List() ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		rec, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, Summary{
			Slug:      rec.Slug,
			APIName:   rec.APIName,
			Endpoint:  rec.Guide.Endpoint.ID(),
			CreatedAt: rec.CreatedAt,
			ViewCount: rec.ViewCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *FileStore) Delete(slug string) error {
	if !ValidSlug(slug) {
		return fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(slug)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		return fmt.Errorf("delete guide %s: %w", slug, err)
	}
	return nil
}

func (s *FileStore) path(slug string) string {
	return filepath.Join(s.dir, slug+".json")
}

func (s *FileStore) read(slug string) (*Record, error) {
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	data, err := os.ReadFile(s.path(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
		}
		return nil, fmt.Errorf("read guide %s: %w", slug, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode guide %s: %w", slug, err)
	}
	if rec.Guide == nil || rec.Guide.Spec == nil {
		return nil, fmt.Errorf("decode guide %s: record has no guide", slug)
	}
	return &rec, nil
}

// write replaces the record file atomically.
func (s *FileStore) write(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode guide %s: %w", rec.Slug, err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+rec.Slug+".*.tmp")
	if err != nil {
		return fmt.Errorf("write guide %s: %w", rec.Slug, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write guide %s: %w", rec.Slug, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write guide %s: %w", rec.Slug, err)
	}
	if err := os.Rename(tmpName, s.path(rec.Slug)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write guide %s: %w", rec.Slug, err)
	}
	return nil
}
