package dto

import (
	"time"

	"clinstock/internal/core/types"
	"clinstock/internal/domain/ledger"
)

// StockLocationResponse is one ledger row.
type StockLocationResponse struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"productId"`
	LocationType string       `json:"locationType"`
	LocationID   string       `json:"locationId"`
	Quantity     int64        `json:"quantity"`
	Price        *types.Money `json:"price,omitempty"`
	SKU          *string      `json:"sku,omitempty"`
	ExpiryDate   *time.Time   `json:"expiryDate,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// FromStockLocation creates StockLocationResponse from a ledger row.
func FromStockLocation(row ledger.StockLocation) StockLocationResponse {
	return StockLocationResponse{
		ID:           row.ID.String(),
		ProductID:    row.ProductID.String(),
		LocationType: string(row.LocationType),
		LocationID:   row.LocationID.String(),
		Quantity:     row.Quantity,
		Price:        row.Price,
		SKU:          row.SKU,
		ExpiryDate:   row.ExpiryDate,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// StockLocationListResponse wraps a product's ledger rows.
type StockLocationListResponse struct {
	Items []StockLocationResponse `json:"items"`
}

// AvailabilityResponse is a product total across locations with the
// low-stock check against the product's configured minimum.
type AvailabilityResponse struct {
	ProductID    string `json:"productId"`
	Total        int64  `json:"total"`
	MinimumStock int64  `json:"minimumStock"`
	BelowMinimum bool   `json:"belowMinimum"`
}
