package enums

import "fmt"

// RelationshipType describes the cardinality of a slave's source set.
type RelationshipType string

const (
	RelationshipTypeOneToOne  RelationshipType = "one_to_one"
	RelationshipTypeManyToOne RelationshipType = "many_to_one"
)

var validRelationshipTypes = []RelationshipType{
	RelationshipTypeOneToOne,
	RelationshipTypeManyToOne,
}

// String implements fmt.Stringer.
func (t RelationshipType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known RelationshipType.
func (t RelationshipType) IsValid() bool {
	for _, candidate := range validRelationshipTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRelationshipType converts raw input into a RelationshipType.
func ParseRelationshipType(value string) (RelationshipType, error) {
	for _, candidate := range validRelationshipTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid relationship type %q", value)
}

// RelationshipTypeForCount derives the type from the number of relationships a slave has.
func RelationshipTypeForCount(n int) RelationshipType {
	if n == 1 {
		return RelationshipTypeOneToOne
	}
	return RelationshipTypeManyToOne
}
