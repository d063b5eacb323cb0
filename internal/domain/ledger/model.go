// Package ledger owns the authoritative quantity per (product, location).
package ledger

import (
	"time"

	"clinstock/internal/core/id"
	"clinstock/internal/core/types"
	"clinstock/internal/domain/location"
)

// StockLocation is one ledger row: the current quantity of one product at
// one location, plus optional batch metadata. Exactly one row exists per
// (product, location) pair; it is created lazily on first inbound movement
// and mutated only by the movement processor. Quantity is never negative.
type StockLocation struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	LocationType location.Kind `db:"location_type" json:"locationType"`
	LocationID   id.ID         `db:"location_id" json:"locationId"`

	Quantity int64 `db:"quantity" json:"quantity"`

	// Batch metadata, last write wins on inbound movements
	Price      *types.Money `db:"price" json:"price,omitempty"`
	SKU        *string      `db:"sku" json:"sku,omitempty"`
	ExpiryDate *time.Time   `db:"expiry_date" json:"expiryDate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Location returns the row's location reference.
func (s *StockLocation) Location() location.Reference {
	return location.Reference{Kind: s.LocationType, ID: s.LocationID}
}

// Defaults carries optional batch metadata applied on inbound movements.
type Defaults struct {
	Price      *types.Money
	SKU        *string
	ExpiryDate *time.Time
}

// DefaultsFrom captures a source row's batch metadata, used when a transfer
// credits the destination with what it debited from the source.
func DefaultsFrom(src *StockLocation) Defaults {
	if src == nil {
		return Defaults{}
	}
	return Defaults{
		Price:      src.Price,
		SKU:        src.SKU,
		ExpiryDate: src.ExpiryDate,
	}
}

// apply overwrites the row's metadata with non-null incoming values.
func (d Defaults) apply(row *StockLocation) {
	if d.Price != nil {
		row.Price = d.Price
	}
	if d.SKU != nil {
		row.SKU = d.SKU
	}
	if d.ExpiryDate != nil {
		row.ExpiryDate = d.ExpiryDate
	}
}

// newStockLocation creates an empty row for lazy creation on first inbound.
func newStockLocation(productID id.ID, ref location.Reference, defaults Defaults) *StockLocation {
	now := time.Now().UTC()
	row := &StockLocation{
		ID:           id.New(),
		ProductID:    productID,
		LocationType: ref.Kind,
		LocationID:   ref.ID,
		Quantity:     0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	defaults.apply(row)
	return row
}
