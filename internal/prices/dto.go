package prices

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
)

// Epsilon is the smallest price movement that counts as a change during recompute.
var Epsilon = decimal.New(1, -3)

// Entry is the API view of a price table row.
type Entry struct {
	ID               uuid.UUID              `json:"id"`
	SlaveProductID   int64                  `json:"slave_product_id"`
	RelationshipType enums.RelationshipType `json:"relationship_type"`
	CalculatedPrice  decimal.Decimal        `json:"calculated_price"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// RebuildResult counts the entries touched by RebuildFromRelationships.
type RebuildResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

type OrderBy string

const (
	OrderBySlave OrderBy = "slave"
	OrderByType  OrderBy = "type"
	OrderByPrice OrderBy = "price"
)

// ParseOrderBy accepts the short names and the column names; unknown values fall back to slave.
func ParseOrderBy(value string) OrderBy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "type", "relationship_type":
		return OrderByType
	case "price", "calculated_price":
		return OrderByPrice
	default:
		return OrderBySlave
	}
}

func orderClauses(orderBy OrderBy, desc bool) []string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	switch orderBy {
	case OrderByType:
		return []string{"relationship_type " + dir, "slave_product_id ASC"}
	case OrderByPrice:
		return []string{"calculated_price " + dir, "slave_product_id ASC"}
	default:
		return []string{"slave_product_id " + dir}
	}
}

func newEntry(m models.PriceEntry) Entry {
	return Entry{
		ID:               m.ID,
		SlaveProductID:   m.SlaveProductID,
		RelationshipType: m.RelationshipType,
		CalculatedPrice:  m.CalculatedPrice,
		UpdatedAt:        m.UpdatedAt,
	}
}
