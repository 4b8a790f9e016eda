package family_test

import (
	"fmt"

	"github.com/matzehuels/lineage/pkg/family"
)

func ExampleDate_Compare() {
	older := family.Year(1950)
	younger := family.FullDate(1962, 4, 1)
	unknown := family.Date{}

	fmt.Println(older.Compare(younger))
	fmt.Println(unknown.Compare(older))
	// Output:
	// -1
	// 1
}

func ExampleTree_Validate() {
	tree := family.Tree{
		Persons: []family.Person{{ID: "mother"}, {ID: "child"}},
		Relationships: []family.Relationship{
			family.ParentChild("mother", "child"),
			family.ParentChild("father", "child"),
		},
	}
	fmt.Println(tree.Validate())
	// Output:
	// PERSON_NOT_FOUND: relationship 1 references unknown person "father"
}
