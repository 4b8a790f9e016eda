package family

import (
	"github.com/matzehuels/lineage/pkg/errors"
)

// Validate checks the structural integrity of the tree: person ids must be
// present, well formed and unique, relationships must have a known category
// and status, and must not relate a person to itself. References to unknown
// persons and a dangling root are reported too.
//
// All problems are reported as [errors.ErrCodeInvalidTree] (or
// [errors.ErrCodeInvalidID] for malformed ids).
func (t *Tree) Validate() error {
	seen := make(map[string]bool, len(t.Persons))
	for i, p := range t.Persons {
		if p.ID == "" {
			return errors.New(errors.ErrCodeInvalidTree, "person %d has no id", i)
		}
		if err := errors.ValidatePersonID(p.ID); err != nil {
			return err
		}
		if seen[p.ID] {
			return errors.New(errors.ErrCodeInvalidTree, "duplicate person id: %s", p.ID)
		}
		switch p.Gender {
		case GenderMale, GenderFemale, GenderUnknown:
		default:
			return errors.New(errors.ErrCodeInvalidTree, "person %s: unknown gender %q", p.ID, p.Gender)
		}
		seen[p.ID] = true
	}

	for i, r := range t.Relationships {
		switch r.Category {
		case CategoryCouple:
			if !r.CoupleStatus.Valid() {
				return errors.New(errors.ErrCodeInvalidTree, "relationship %d: unknown couple status %q", i, r.CoupleStatus)
			}
		case CategoryParentChild:
			if !r.ChildRelation.Valid() {
				return errors.New(errors.ErrCodeInvalidTree, "relationship %d: unknown child relation %q", i, r.ChildRelation)
			}
		default:
			return errors.New(errors.ErrCodeInvalidTree, "relationship %d: unknown category %q", i, r.Category)
		}
		if r.Person1ID == r.Person2ID {
			return errors.New(errors.ErrCodeInvalidTree, "relationship %d relates %s to itself", i, r.Person1ID)
		}
		for _, id := range []string{r.Person1ID, r.Person2ID} {
			if !seen[id] {
				return errors.New(errors.ErrCodePersonNotFound, "relationship %d references unknown person %q", i, id)
			}
		}
	}

	if t.RootPersonID != "" && !seen[t.RootPersonID] {
		return errors.New(errors.ErrCodePersonNotFound, "root person %q not in tree", t.RootPersonID)
	}
	return nil
}
