package store

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps trees in a SQLite database, one row per tree, person
// and relationship. Input order is preserved through a position column.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, stderrors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (family.Tree, error) {
	t := family.Tree{ID: id}
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, root_person_id, updated_at FROM trees WHERE id = ?`, id,
	).Scan(&t.Name, &t.RootPersonID, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return family.Tree{}, notFound(id)
	}
	if err != nil {
		return family.Tree{}, fmt.Errorf("query tree: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return family.Tree{}, fmt.Errorf("tree %s: bad updated_at %q", id, updated)
	}

	if t.Persons, err = s.persons(ctx, id); err != nil {
		return family.Tree{}, err
	}
	if t.Relationships, err = s.relationships(ctx, id); err != nil {
		return family.Tree{}, err
	}
	return t, nil
}

func (s *SQLiteStore) persons(ctx context.Context, treeID string) ([]family.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, gender, birth, death, alive
		FROM persons WHERE tree_id = ? ORDER BY position`, treeID)
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", err)
	}
	defer rows.Close()

	var out []family.Person
	for rows.Next() {
		var (
			p            family.Person
			birth, death string
			alive        sql.NullBool
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Gender, &birth, &death, &alive); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		if p.Birth, err = family.ParseDate(birth); err != nil {
			return nil, fmt.Errorf("person %s: %w", p.ID, err)
		}
		if p.Death, err = family.ParseDate(death); err != nil {
			return nil, fmt.Errorf("person %s: %w", p.ID, err)
		}
		if alive.Valid {
			v := alive.Bool
			p.Alive = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) relationships(ctx context.Context, treeID string) ([]family.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, person1_id, person2_id, couple_status, child_relation
		FROM relationships WHERE tree_id = ? ORDER BY position`, treeID)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var out []family.Relationship
	for rows.Next() {
		var r family.Relationship
		if err := rows.Scan(&r.ID, &r.Category, &r.Person1ID, &r.Person2ID, &r.CoupleStatus, &r.ChildRelation); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, t *family.Tree) error {
	if err := prepare(t); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trees (id, name, root_person_id, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			root_person_id = excluded.root_person_id,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, t.RootPersonID, t.UpdatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert tree: %w", err)
	}
	for _, table := range []string{"persons", "relationships"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE tree_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	personStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO persons (tree_id, position, id, name, gender, birth, death, alive)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare person insert: %w", err)
	}
	defer personStmt.Close()
	for i, p := range t.Persons {
		var alive sql.NullBool
		if p.Alive != nil {
			alive = sql.NullBool{Bool: *p.Alive, Valid: true}
		}
		if _, err := personStmt.ExecContext(ctx, t.ID, i, p.ID, p.Name, string(p.Gender),
			p.Birth.String(), p.Death.String(), alive); err != nil {
			return fmt.Errorf("insert person %s: %w", p.ID, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (tree_id, position, id, category, person1_id, person2_id, couple_status, child_relation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare relationship insert: %w", err)
	}
	defer relStmt.Close()
	for i, r := range t.Relationships {
		if _, err := relStmt.ExecContext(ctx, t.ID, i, r.ID, string(r.Category), r.Person1ID, r.Person2ID,
			string(r.CoupleStatus), string(r.ChildRelation)); err != nil {
			return fmt.Errorf("insert relationship %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.root_person_id, t.updated_at,
			(SELECT COUNT(*) FROM persons p WHERE p.tree_id = t.id),
			(SELECT COUNT(*) FROM relationships r WHERE r.tree_id = t.id)
		FROM trees t
		ORDER BY t.updated_at DESC, t.id`)
	if err != nil {
		return nil, fmt.Errorf("query trees: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.RootPersonID, &updated, &sum.Persons, &sum.Relationships); err != nil {
			return nil, fmt.Errorf("scan tree: %w", err)
		}
		if sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("tree %s: bad updated_at %q", sum.ID, updated)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// RFC 3339 text with trimmed fractions does not sort lexically.
	sortSummaries(out)
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateTreeID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM trees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tree: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tree: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
