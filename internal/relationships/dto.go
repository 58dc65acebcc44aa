package relationships

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pricesync/pkg/db/models"
)

// Relationship is the API view of a slave/source edge.
type Relationship struct {
	ID              uuid.UUID `json:"id"`
	SlaveProductID  int64     `json:"slave_product_id"`
	SourceProductID int64     `json:"source_product_id"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrderBy selects the primary sort column of GetAll.
type OrderBy string

const (
	OrderBySlave  OrderBy = "slave"
	OrderBySource OrderBy = "source"
	OrderByActive OrderBy = "active"
)

// ParseOrderBy accepts the short names and the column names; unknown values fall back to slave.
func ParseOrderBy(value string) OrderBy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "source", "source_product_id":
		return OrderBySource
	case "active":
		return OrderByActive
	default:
		return OrderBySlave
	}
}

// Direction is ASC or DESC.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

func ParseDirection(value string) Direction {
	if strings.EqualFold(strings.TrimSpace(value), "desc") {
		return Desc
	}
	return Asc
}

// orderClauses sorts by the primary column in dir. Tie-breakers are always
// ascending.
func orderClauses(orderBy OrderBy, dir Direction) []string {
	d := string(dir)
	switch orderBy {
	case OrderByActive:
		return []string{"active " + d, "slave_product_id ASC", "source_product_id ASC"}
	case OrderBySource:
		return []string{"source_product_id " + d, "slave_product_id ASC"}
	default:
		return []string{"slave_product_id " + d, "source_product_id ASC"}
	}
}

// ItemFailure describes one id that could not be processed in a bulk call.
type ItemFailure struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// AddInput is the validated payload of Add.
type AddInput struct {
	SlaveProductID  int64
	SourceProductID int64
	Active          bool
}

func newRelationship(m models.Relationship) Relationship {
	return Relationship{
		ID:              m.ID,
		SlaveProductID:  m.SlaveProductID,
		SourceProductID: m.SourceProductID,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func newRelationships(rows []models.Relationship) []Relationship {
	out := make([]Relationship, 0, len(rows))
	for _, row := range rows {
		out = append(out, newRelationship(row))
	}
	return out
}
