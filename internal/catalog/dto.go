package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
)

// Product is the catalog view consumed by the sync engine and the API.
type Product struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Status       enums.ProductStatus `json:"status"`
	RegularPrice *string             `json:"regular_price"`
}

// Price returns the numeric regular price, zero when missing or malformed.
func (p Product) Price() decimal.Decimal {
	return PriceOrZero(p.RegularPrice)
}

// ProductSummary is the id/name pair returned by product pickers.
type ProductSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryPath pairs a category with its slash-joined ancestry.
type CategoryPath struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

type PriceChangeDTO struct {
	ID            string                  `json:"id"`
	ProductID     int64                   `json:"product_id"`
	PreviousPrice *string                 `json:"previous_price"`
	NewPrice      string                  `json:"new_price"`
	Reason        enums.PriceChangeReason `json:"reason"`
	CreatedAt     time.Time               `json:"created_at"`
}

func newProduct(m *models.CatalogProduct) *Product {
	if m == nil {
		return nil
	}
	return &Product{
		ID:           m.ID,
		Name:         m.Name,
		Status:       m.Status,
		RegularPrice: m.RegularPrice,
	}
}

func newSummaries(rows []models.CatalogProduct) []ProductSummary {
	out := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProductSummary{ID: row.ID, Name: row.Name})
	}
	return out
}

func newPriceChangeDTO(m models.PriceChange) PriceChangeDTO {
	return PriceChangeDTO{
		ID:            m.ID.String(),
		ProductID:     m.ProductID,
		PreviousPrice: m.PreviousPrice,
		NewPrice:      FormatPrice(m.NewPrice),
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
}
