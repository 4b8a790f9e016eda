package store

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
)

const fileExt = ".yaml"

// FileStore keeps each tree as a YAML file named after its id.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file store in dir.
// If dir is empty, defaults to ~/.config/lineage/trees/
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "lineage", "trees")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) treePath(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

func (s *FileStore) Get(ctx context.Context, id string) (family.Tree, error) {
	if err := errors.ValidateTreeID(id); err != nil {
		return family.Tree{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := graph.ReadTreeFile(s.treePath(id))
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return family.Tree{}, notFound(id)
	}
	if err != nil {
		return family.Tree{}, err
	}
	t.ID = id
	return t, nil
}

func (s *FileStore) Put(ctx context.Context, t *family.Tree) error {
	if err := prepare(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temp file and rename so readers never see a partial tree.
	f, err := os.CreateTemp(s.dir, ".tree-*"+fileExt+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := graph.WriteTree(*t, f, graph.FormatYAML); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write tree file: %w", err)
	}
	if err := os.Rename(tmp, s.treePath(t.ID)); err != nil {
		return fmt.Errorf("store tree file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := graph.ReadTreeFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		t.ID = strings.TrimSuffix(name, fileExt)
		out = append(out, summarize(t))
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateTreeID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.treePath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("remove tree file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Dir returns the directory holding the tree files.
func (s *FileStore) Dir() string {
	return s.dir
}

// sortSummaries orders by UpdatedAt descending, then id.
func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*FileStore)(nil)
