// Package store persists family trees.
//
// Three backends implement [Store]:
//   - file: one YAML document per tree in a directory, for the CLI
//   - sqlite: an embedded database (modernc.org/sqlite, no cgo)
//   - mongo: a MongoDB collection, for shared server deployments
//
// [Open] picks a backend from a [Config] and wraps it so that every
// operation is reported to [observability.Store] hooks.
package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/observability"
)

// ErrNotFound is returned (wrapped in an [errors.ErrCodeTreeNotFound] error)
// when a tree does not exist.
var ErrNotFound = stderrors.New("tree not found")

// Store persists trees by id.
type Store interface {
	// Get returns the tree with the given id.
	Get(ctx context.Context, id string) (family.Tree, error)

	// Put inserts or replaces a tree. A tree without an id is given a new
	// UUID; UpdatedAt is always stamped. Both are written back to t.
	Put(ctx context.Context, t *family.Tree) error

	// List returns summaries of all trees, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a tree.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Summary describes a stored tree without its contents.
type Summary struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name,omitempty" bson:"name"`
	RootPersonID  string    `json:"root_person_id,omitempty" bson:"root_person_id"`
	Persons       int       `json:"persons" bson:"persons"`
	Relationships int       `json:"relationships" bson:"relationships"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMongo  Backend = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend Backend

	// Path is the directory (file) or database file (sqlite).
	Path string

	MongoURI      string
	MongoDatabase string
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendFile, "":
		s, err = NewFileStore(cfg.Path)
	case BackendSQLite:
		s, err = NewSQLiteStore(ctx, cfg.Path)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s store", backendName(cfg.Backend))
	}
	return Observed(s, backendName(cfg.Backend)), nil
}

func backendName(b Backend) string {
	if b == "" {
		return string(BackendFile)
	}
	return string(b)
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// prepare assigns an id and timestamp and validates t before it is written.
func prepare(t *family.Tree) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := errors.ValidateTreeID(t.ID); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	// Millisecond precision survives every backend.
	t.UpdatedAt = timeNow().UTC().Truncate(time.Millisecond)
	return nil
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodeTreeNotFound, ErrNotFound, "tree %s", id)
}

func summarize(t family.Tree) Summary {
	return Summary{
		ID:            t.ID,
		Name:          t.Name,
		RootPersonID:  t.RootPersonID,
		Persons:       len(t.Persons),
		Relationships: len(t.Relationships),
		UpdatedAt:     t.UpdatedAt,
	}
}

// =============================================================================
// Instrumentation
// =============================================================================

type observed struct {
	inner   Store
	backend string
}

// Observed wraps s so that every operation is reported to the registered
// store hooks under the given backend name.
func Observed(s Store, backend string) Store {
	return &observed{inner: s, backend: backend}
}

func (o *observed) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, o.backend, op, time.Since(start), err)
}

func (o *observed) Get(ctx context.Context, id string) (t family.Tree, err error) {
	defer func(start time.Time) { o.report(ctx, "get", start, err) }(time.Now())
	return o.inner.Get(ctx, id)
}

func (o *observed) Put(ctx context.Context, t *family.Tree) (err error) {
	defer func(start time.Time) { o.report(ctx, "put", start, err) }(time.Now())
	return o.inner.Put(ctx, t)
}

func (o *observed) List(ctx context.Context) (s []Summary, err error) {
	defer func(start time.Time) { o.report(ctx, "list", start, err) }(time.Now())
	return o.inner.List(ctx)
}

func (o *observed) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { o.report(ctx, "delete", start, err) }(time.Now())
	return o.inner.Delete(ctx, id)
}

func (o *observed) Close() error {
	return o.inner.Close()
}
