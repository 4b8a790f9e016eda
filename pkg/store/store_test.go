package store

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/observability"
)

func sampleTree(id string) family.Tree {
	dead := false
	return family.Tree{
		ID:           id,
		Name:         "Smith family",
		RootPersonID: "ann",
		Persons: []family.Person{
			{ID: "bob", Name: "Bob", Gender: family.GenderMale, Birth: family.Year(1950)},
			{ID: "eve", Name: "Eve", Gender: family.GenderFemale, Birth: family.FullDate(1952, 3, 14), Death: family.Year(2010), Alive: &dead},
			{ID: "ann", Name: "Ann", Gender: family.GenderFemale, Birth: family.Year(1980)},
		},
		Relationships: []family.Relationship{
			family.Couple("bob", "eve", family.StatusMarried),
			family.ParentChild("bob", "ann"),
			family.ParentChild("eve", "ann"),
		},
	}
}

type backend struct {
	name string
	open func(t *testing.T) Store
}

var backends = []backend{
	{"file", func(t *testing.T) Store {
		s, err := NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		return s
	}},
	{"sqlite", func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "trees.db"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}},
	{"sqlite-memory", func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), ":memory:")
		if err != nil {
			t.Fatal(err)
		}
		return s
	}},
}

func TestStoreRoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			tree := sampleTree("smith")
			if err := s.Put(ctx, &tree); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if tree.UpdatedAt.IsZero() {
				t.Error("Put should stamp UpdatedAt")
			}

			got, err := s.Get(ctx, "smith")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if diff := cmp.Diff(tree, got); diff != "" {
				t.Errorf("Get mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreReplace(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			tree := sampleTree("smith")
			if err := s.Put(ctx, &tree); err != nil {
				t.Fatal(err)
			}
			tree.Persons = tree.Persons[2:]
			tree.Relationships = nil
			tree.Name = "Just Ann"
			if err := s.Put(ctx, &tree); err != nil {
				t.Fatalf("second Put: %v", err)
			}

			got, err := s.Get(ctx, "smith")
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "Just Ann" || len(got.Persons) != 1 || len(got.Relationships) != 0 {
				t.Errorf("replace kept stale data: %+v", got)
			}
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	defer func(f func() time.Time) { timeNow = f }(timeNow)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			for _, id := range []string{"a", "b", "c"} {
				tree := sampleTree(id)
				if err := s.Put(ctx, &tree); err != nil {
					t.Fatal(err)
				}
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var ids []string
			for _, sum := range list {
				ids = append(ids, sum.ID)
				if sum.Persons != 3 || sum.Relationships != 3 || sum.Name != "Smith family" {
					t.Errorf("summary %s = %+v", sum.ID, sum)
				}
			}
			// Most recently updated first.
			if diff := cmp.Diff([]string{"c", "b", "a"}, ids); diff != "" {
				t.Errorf("List order (-want +got):\n%s", diff)
			}

			if err := s.Delete(ctx, "b"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "b"); !stderrors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, "b"); !errors.Is(err, errors.ErrCodeTreeNotFound) {
				t.Errorf("second Delete = %v, want TREE_NOT_FOUND", err)
			}
			if list, _ := s.List(ctx); len(list) != 2 {
				t.Errorf("List after Delete has %d trees, want 2", len(list))
			}
		})
	}
}

func TestStoreAssignsID(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			tree := sampleTree("")
			if err := s.Put(ctx, &tree); err != nil {
				t.Fatal(err)
			}
			if _, err := uuid.Parse(tree.ID); err != nil {
				t.Errorf("assigned id %q is not a UUID: %v", tree.ID, err)
			}
			if _, err := s.Get(ctx, tree.ID); err != nil {
				t.Errorf("Get(%s): %v", tree.ID, err)
			}
		})
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		tree family.Tree
		code errors.Code
	}{
		{"bad id", family.Tree{ID: "../etc"}, errors.ErrCodeInvalidID},
		{"dangling relationship", family.Tree{
			ID:            "x",
			Persons:       []family.Person{{ID: "a"}},
			Relationships: []family.Relationship{family.ParentChild("a", "ghost")},
		}, errors.ErrCodePersonNotFound},
		{"duplicate person", family.Tree{
			ID:      "x",
			Persons: []family.Person{{ID: "a"}, {ID: "a"}},
		}, errors.ErrCodeInvalidTree},
	}
	for _, b := range backends {
		for _, tt := range tests {
			t.Run(b.name+"/"+tt.name, func(t *testing.T) {
				s := b.open(t)
				defer s.Close()
				err := s.Put(context.Background(), &tt.tree)
				if !errors.Is(err, tt.code) {
					t.Errorf("Put = %v, want %s", err, tt.code)
				}
			})
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Config{Backend: BackendSQLite, Path: filepath.Join(dir, "t.db")})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	s.Close()

	s, err = Open(ctx, Config{Path: dir})
	if err != nil {
		t.Fatalf("Open(default): %v", err)
	}
	s.Close()

	if _, err := Open(ctx, Config{Backend: "cassandra"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Open(unknown) = %v, want INVALID_INPUT", err)
	}
	if _, err := Open(ctx, Config{Backend: BackendSQLite}); !errors.Is(err, errors.ErrCodeStorage) {
		t.Errorf("Open(sqlite without path) = %v, want STORAGE_ERROR", err)
	}
	if _, err := Open(ctx, Config{Backend: BackendMongo, MongoURI: "notmongo://x", MongoDatabase: "lineage"}); !errors.Is(err, errors.ErrCodeStorage) {
		t.Errorf("Open(mongo with bad uri) = %v, want STORAGE_ERROR", err)
	}
	if _, err := NewMongoStore(ctx, "mongodb://localhost:27017", ""); err == nil {
		t.Error("NewMongoStore without database should fail")
	}
}

func TestObservedReportsOps(t *testing.T) {
	counters := observability.NewCounters()
	observability.SetStoreHooks(counters)
	defer observability.Reset()

	ctx := context.Background()
	inner, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := Observed(inner, "file")

	tree := sampleTree("smith")
	_ = s.Put(ctx, &tree)
	_, _ = s.Get(ctx, "smith")
	_, _ = s.Get(ctx, "missing")
	_, _ = s.List(ctx)
	_ = s.Delete(ctx, "smith")

	snap := counters.Snapshot()
	want := map[string]int64{"file.put": 1, "file.get": 2, "file.list": 1, "file.delete": 1}
	if diff := cmp.Diff(want, snap.StoreOps); diff != "" {
		t.Errorf("store ops (-want +got):\n%s", diff)
	}
	if snap.StoreErrors != 1 {
		t.Errorf("StoreErrors = %d, want 1", snap.StoreErrors)
	}
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	inner, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := Cached(inner, c, nil, 0)

	tree := sampleTree("smith")
	if err := s.Put(ctx, &tree); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "smith"); err != nil {
		t.Fatal(err)
	}

	// The second read is served from the cache even if the file is gone.
	if err := inner.Delete(ctx, "smith"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "smith")
	if err != nil {
		t.Fatalf("cached Get: %v", err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Errorf("cached tree mismatch (-want +got):\n%s", diff)
	}

	// Writes invalidate.
	tree.Name = "Renamed"
	if err := s.Put(ctx, &tree); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, "smith")
	if err != nil || got.Name != "Renamed" {
		t.Errorf("Get after Put = %q, %v", got.Name, err)
	}
	if err := s.Delete(ctx, "smith"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "smith"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}
