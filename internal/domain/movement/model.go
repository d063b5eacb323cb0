// Package movement implements the stock movement processor and history
// queries. A movement is an append-only journal entry; the ledger rows it
// affects are updated in the same transaction.
package movement

import (
	"context"
	"time"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/core/types"
	"clinstock/internal/domain/location"
)

// Type is the movement kind.
type Type string

const (
	// TypeEntrada is an inbound movement (credits the destination).
	TypeEntrada Type = "entrada"
	// TypeSaida is an outbound movement (debits the source).
	TypeSaida Type = "saida"
	// TypeTransferencia debits the source and credits the destination.
	TypeTransferencia Type = "transferencia"
)

// Valid reports whether t is a known movement type.
func (t Type) Valid() bool {
	switch t {
	case TypeEntrada, TypeSaida, TypeTransferencia:
		return true
	}
	return false
}

// Movement is one journal row. Immutable once written: corrections are made
// with compensating entries, never by mutating history.
type Movement struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Type      Type  `db:"type" json:"type"`
	Quantity  int64 `db:"quantity" json:"quantity"`

	FromLocationType *location.Kind `db:"from_location_type" json:"fromLocationType,omitempty"`
	FromLocationID   *id.ID         `db:"from_location_id" json:"fromLocationId,omitempty"`
	ToLocationType   *location.Kind `db:"to_location_type" json:"toLocationType,omitempty"`
	ToLocationID     *id.ID         `db:"to_location_id" json:"toLocationId,omitempty"`

	// UserID is the actor who recorded the movement
	UserID id.ID `db:"user_id" json:"userId"`

	Reason     string       `db:"reason" json:"reason,omitempty"`
	Notes      string       `db:"notes" json:"notes,omitempty"`
	UnitPrice  *types.Money `db:"unit_price" json:"unitPrice,omitempty"`
	TotalValue *types.Money `db:"total_value" json:"totalValue,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// From returns the source reference, or a zero reference when absent.
func (m *Movement) From() location.Reference {
	if m.FromLocationType == nil || m.FromLocationID == nil {
		return location.Reference{}
	}
	return location.Reference{Kind: *m.FromLocationType, ID: *m.FromLocationID}
}

// To returns the destination reference, or a zero reference when absent.
func (m *Movement) To() location.Reference {
	if m.ToLocationType == nil || m.ToLocationID == nil {
		return location.Reference{}
	}
	return location.Reference{Kind: *m.ToLocationType, ID: *m.ToLocationID}
}

// RefInput is a raw location reference as received from the caller.
// The kind tag is validated when the input is turned into a Reference.
type RefInput struct {
	ID   id.ID
	Type string
}

// CreateInput is the request to record one movement.
type CreateInput struct {
	ProductID id.ID
	Type      Type
	Quantity  int64

	From *RefInput
	To   *RefInput

	UserID id.ID

	Reason string
	Notes  string

	// Batch metadata applied to the credited ledger row on entrada
	SKU        *string
	UnitPrice  *types.Money
	ExpiryDate *time.Time
}

// Validate checks shape and type-dependent required fields. It does not
// touch the database; catalog existence is checked by the resolver.
func (in *CreateInput) Validate(ctx context.Context) error {
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("productId is required")
	}
	if !in.Type.Valid() {
		return apperror.NewValidation("invalid movement type").
			WithDetail("type", string(in.Type))
	}
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be a positive integer").
			WithDetail("quantity", in.Quantity)
	}
	if id.IsNil(in.UserID) {
		return apperror.NewValidation("userId is required")
	}

	needsFrom := in.Type == TypeSaida || in.Type == TypeTransferencia
	needsTo := in.Type == TypeEntrada || in.Type == TypeTransferencia

	if needsFrom {
		if in.From == nil || id.IsNil(in.From.ID) || in.From.Type == "" {
			return apperror.NewValidation("fromLocationId and fromLocationType are required").
				WithDetail("type", string(in.Type))
		}
		if in.SKU == nil || *in.SKU == "" {
			return apperror.NewValidation("sku is required").
				WithDetail("type", string(in.Type))
		}
		if in.Reason == "" {
			return apperror.NewValidation("reason is required").
				WithDetail("type", string(in.Type))
		}
	}

	if needsTo {
		if in.To == nil || id.IsNil(in.To.ID) || in.To.Type == "" {
			return apperror.NewValidation("toLocationId and toLocationType are required").
				WithDetail("type", string(in.Type))
		}
	}

	return nil
}

// refs builds validated location references from the raw inputs.
// Fails with InvalidLocationType on a bad kind tag and with SameLocation
// when a transfer names one location twice.
func (in *CreateInput) refs() (from, to location.Reference, err error) {
	if in.From != nil {
		from, err = location.NewReference(in.From.Type, in.From.ID)
		if err != nil {
			return from, to, err
		}
	}
	if in.To != nil {
		to, err = location.NewReference(in.To.Type, in.To.ID)
		if err != nil {
			return from, to, err
		}
	}
	if in.Type == TypeTransferencia && from.Equal(to) {
		return from, to, apperror.NewSameLocation(string(from.Kind), from.ID.String())
	}
	return from, to, nil
}

// newMovement builds the journal row for a validated input.
func newMovement(in *CreateInput, from, to location.Reference) *Movement {
	m := &Movement{
		ID:        id.New(),
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		UserID:    in.UserID,
		Reason:    in.Reason,
		Notes:     in.Notes,
		UnitPrice: in.UnitPrice,
		CreatedAt: time.Now().UTC(),
	}
	if !from.IsZero() {
		m.FromLocationType = &from.Kind
		m.FromLocationID = &from.ID
	}
	if !to.IsZero() {
		m.ToLocationType = &to.Kind
		m.ToLocationID = &to.ID
	}
	if in.UnitPrice != nil {
		total := types.MulInt(*in.UnitPrice, in.Quantity)
		m.TotalValue = &total
	}
	return m
}
