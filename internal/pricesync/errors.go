package pricesync

import "errors"

var (
	ErrNoPriceEntry         = errors.New("no price entry for product")
	ErrNoActiveRelationship = errors.New("product has no active relationship")
	ErrProductNotFound      = errors.New("product not found in catalog")
)
