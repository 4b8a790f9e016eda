package family

import (
	"time"
)

// Gender is the recorded gender of a person. The empty value means unknown.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = ""
)

// Category is the kind of a [Relationship].
type Category string

const (
	// CategoryCouple is an undirected partnership between Person1 and Person2.
	CategoryCouple Category = "couple"
	// CategoryParentChild is a directed edge: Person1 is the parent, Person2 the child.
	CategoryParentChild Category = "parent_child"
)

// CoupleStatus describes the state of a couple relationship.
type CoupleStatus string

const (
	StatusMarried  CoupleStatus = "married"
	StatusCivil    CoupleStatus = "civil"
	StatusDating   CoupleStatus = "dating"
	StatusOther    CoupleStatus = "other"
	StatusDivorced CoupleStatus = "divorced"
	StatusWidowed  CoupleStatus = "widowed"
)

// Historical reports whether the union has ended (divorced or widowed).
// Historical couples are drawn with a dashed bar and the former partner is
// placed on the opposite side of the active one.
func (s CoupleStatus) Historical() bool {
	return s == StatusDivorced || s == StatusWidowed
}

// Valid reports whether s is a known status. The empty status counts as valid
// and is treated like [StatusOther].
func (s CoupleStatus) Valid() bool {
	switch s {
	case "", StatusMarried, StatusCivil, StatusDating, StatusOther, StatusDivorced, StatusWidowed:
		return true
	}
	return false
}

// ChildRelation describes how a child relates to a parent. It does not
// influence layout.
type ChildRelation string

const (
	ChildBiological   ChildRelation = "biological"
	ChildAdopted      ChildRelation = "adopted"
	ChildFoster       ChildRelation = "foster"
	ChildGuardianship ChildRelation = "guardianship"
	ChildStepchild    ChildRelation = "stepchild"
)

// Valid reports whether r is a known child relation. Empty is valid.
func (r ChildRelation) Valid() bool {
	switch r {
	case "", ChildBiological, ChildAdopted, ChildFoster, ChildGuardianship, ChildStepchild:
		return true
	}
	return false
}

// Person is a single individual in a tree.
type Person struct {
	ID     string `json:"id" yaml:"id" bson:"id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Gender Gender `json:"gender,omitempty" yaml:"gender,omitempty" bson:"gender,omitempty"`
	Birth  Date   `json:"birth" yaml:"birth,omitempty" bson:"birth"`
	Death  Date   `json:"death" yaml:"death,omitempty" bson:"death"`
	Alive  *bool  `json:"alive,omitempty" yaml:"alive,omitempty" bson:"alive,omitempty"`
}

// IsAlive reports whether the person is living. Persons are assumed alive
// unless marked otherwise or a death date is recorded.
func (p Person) IsAlive() bool {
	if p.Alive != nil {
		return *p.Alive
	}
	return !p.Death.Known()
}

// Label returns the display name, falling back to the id.
func (p Person) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Relationship is a typed edge between two persons.
type Relationship struct {
	ID            string        `json:"id,omitempty" yaml:"id,omitempty" bson:"id,omitempty"`
	Category      Category      `json:"category" yaml:"category" bson:"category"`
	Person1ID     string        `json:"person1_id" yaml:"person1" bson:"person1_id"`
	Person2ID     string        `json:"person2_id" yaml:"person2" bson:"person2_id"`
	CoupleStatus  CoupleStatus  `json:"couple_status,omitempty" yaml:"status,omitempty" bson:"couple_status,omitempty"`
	ChildRelation ChildRelation `json:"child_relation,omitempty" yaml:"relation,omitempty" bson:"child_relation,omitempty"`
}

// Couple returns a couple relationship between a and b.
func Couple(a, b string, status CoupleStatus) Relationship {
	return Relationship{Category: CategoryCouple, Person1ID: a, Person2ID: b, CoupleStatus: status}
}

// ParentChild returns a biological parent-child relationship.
func ParentChild(parent, child string) Relationship {
	return Relationship{Category: CategoryParentChild, Person1ID: parent, Person2ID: child, ChildRelation: ChildBiological}
}

// Tree is the unit that is stored, cached and laid out.
type Tree struct {
	ID            string         `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty"`
	Name          string         `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	RootPersonID  string         `json:"root_person_id,omitempty" yaml:"root,omitempty" bson:"root_person_id,omitempty"`
	Persons       []Person       `json:"persons" yaml:"persons" bson:"persons"`
	Relationships []Relationship `json:"relationships" yaml:"relationships" bson:"relationships"`
	UpdatedAt     time.Time      `json:"updated_at,omitzero" yaml:"updated_at,omitempty" bson:"updated_at"`
}

// Person returns the person with the given id.
func (t *Tree) Person(id string) (Person, bool) {
	for _, p := range t.Persons {
		if p.ID == id {
			return p, true
		}
	}
	return Person{}, false
}

// PersonIDs returns all person ids in input order.
func (t *Tree) PersonIDs() []string {
	ids := make([]string, len(t.Persons))
	for i, p := range t.Persons {
		ids[i] = p.ID
	}
	return ids
}
