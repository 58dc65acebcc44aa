package pricesync

import (
	"time"

	"github.com/angelmondragon/pricesync/internal/prices"
)

// Report summarizes one ExecuteSync run.
type Report struct {
	RunID          string               `json:"run_id"`
	Success        bool                 `json:"success"`
	Message        string               `json:"message"`
	ProductsSynced int                  `json:"products_synced"`
	PricesUpdated  int                  `json:"prices_updated"`
	Rebuild        prices.RebuildResult `json:"rebuild"`
	Errors         []string             `json:"errors"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`
}

// PropagationResult is the outcome of pushing computed prices to the catalog.
type PropagationResult struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// SingleResult is returned by SyncSingleProduct.
type SingleResult struct {
	ProductID int64  `json:"product_id"`
	Price     string `json:"price"`
	Message   string `json:"message"`
}

// CleanupResult describes the cascade run after a product is deleted.
type CleanupResult struct {
	ProductID            int64                `json:"product_id"`
	RelationshipsRemoved int64                `json:"relationships_removed"`
	PriceEntryRemoved    bool                 `json:"price_entry_removed"`
	Rebuild              prices.RebuildResult `json:"rebuild"`
}

// RefreshResult is returned by the relationship mutation refresh helpers.
type RefreshResult struct {
	Rebuild       prices.RebuildResult `json:"rebuild"`
	PricesUpdated int                  `json:"prices_updated"`
}
