package dto

import (
	"time"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/core/types"
	"clinstock/internal/domain/location"
	"clinstock/internal/domain/movement"
)

// CreateMovementRequest for recording a movement.
// Required fields beyond productId/type/quantity depend on the type and
// are checked by the domain layer.
type CreateMovementRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Quantity  int64  `json:"quantity"`

	FromLocationID   *string `json:"fromLocationId"`
	FromLocationType string  `json:"fromLocationType"`
	ToLocationID     *string `json:"toLocationId"`
	ToLocationType   string  `json:"toLocationType"`

	SKU    *string `json:"sku"`
	Reason string  `json:"reason"`
	Notes  string  `json:"notes"`

	UnitPrice  *types.Money `json:"unitPrice"`
	ExpiryDate *time.Time   `json:"expiryDate"`
}

// ToInput converts the request into domain input. Actor is the
// authenticated user recording the movement.
func (r *CreateMovementRequest) ToInput(actorID string) (*movement.CreateInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid productId format")
	}

	if actorID == "" {
		return nil, apperror.NewValidation("acting user is required").
			WithDetail("header", "X-User-ID")
	}
	userID, err := id.Parse(actorID)
	if err != nil {
		return nil, apperror.NewValidation("invalid user id format").
			WithDetail("header", "X-User-ID")
	}

	in := &movement.CreateInput{
		ProductID:  productID,
		Type:       movement.Type(r.Type),
		Quantity:   r.Quantity,
		UserID:     userID,
		Reason:     r.Reason,
		Notes:      r.Notes,
		SKU:        r.SKU,
		UnitPrice:  r.UnitPrice,
		ExpiryDate: r.ExpiryDate,
	}

	if r.FromLocationID != nil {
		locID, err := id.Parse(*r.FromLocationID)
		if err != nil {
			return nil, apperror.NewValidation("invalid fromLocationId format")
		}
		in.From = &movement.RefInput{ID: locID, Type: r.FromLocationType}
	}

	if r.ToLocationID != nil {
		locID, err := id.Parse(*r.ToLocationID)
		if err != nil {
			return nil, apperror.NewValidation("invalid toLocationId format")
		}
		in.To = &movement.RefInput{ID: locID, Type: r.ToLocationType}
	}

	return in, nil
}

// MovementResponse is one journal row.
type MovementResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Type      string `json:"type"`
	Quantity  int64  `json:"quantity"`

	FromLocationType *string `json:"fromLocationType,omitempty"`
	FromLocationID   *string `json:"fromLocationId,omitempty"`
	ToLocationType   *string `json:"toLocationType,omitempty"`
	ToLocationID     *string `json:"toLocationId,omitempty"`

	UserID     string       `json:"userId"`
	Reason     string       `json:"reason,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	UnitPrice  *types.Money `json:"unitPrice,omitempty"`
	TotalValue *types.Money `json:"totalValue,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Product      *ProductResponse  `json:"product,omitempty"`
	User         *IdentityResponse `json:"user,omitempty"`
	FromLocation *IdentityResponse `json:"fromLocation,omitempty"`
	ToLocation   *IdentityResponse `json:"toLocation,omitempty"`
}

// ProductResponse is the product read model attached to movements.
type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Unit         string `json:"unit,omitempty"`
	MinimumStock int64  `json:"minimumStock"`
}

// FromMovement creates MovementResponse from a journal row.
func FromMovement(m movement.Movement) MovementResponse {
	resp := MovementResponse{
		ID:         m.ID.String(),
		ProductID:  m.ProductID.String(),
		Type:       string(m.Type),
		Quantity:   m.Quantity,
		UserID:     m.UserID.String(),
		Reason:     m.Reason,
		Notes:      m.Notes,
		UnitPrice:  m.UnitPrice,
		TotalValue: m.TotalValue,
		CreatedAt:  m.CreatedAt,
	}
	if m.FromLocationType != nil && m.FromLocationID != nil {
		kind := string(*m.FromLocationType)
		locID := m.FromLocationID.String()
		resp.FromLocationType = &kind
		resp.FromLocationID = &locID
	}
	if m.ToLocationType != nil && m.ToLocationID != nil {
		kind := string(*m.ToLocationType)
		locID := m.ToLocationID.String()
		resp.ToLocationType = &kind
		resp.ToLocationID = &locID
	}
	return resp
}

// FromEnriched creates MovementResponse with display identities.
func FromEnriched(e movement.Enriched) MovementResponse {
	resp := FromMovement(e.Movement)
	if e.Product != nil {
		resp.Product = &ProductResponse{
			ID:           e.Product.ID.String(),
			Name:         e.Product.Name,
			Unit:         e.Product.Unit,
			MinimumStock: e.Product.MinimumStock,
		}
	}
	resp.User = fromIdentity(e.User)
	resp.FromLocation = fromIdentity(e.FromLocation)
	resp.ToLocation = fromIdentity(e.ToLocation)
	return resp
}

func fromIdentity(identity *location.Identity) *IdentityResponse {
	if identity == nil {
		return nil
	}
	return &IdentityResponse{ID: identity.ID.String(), Name: identity.Name}
}

// MovementPageResponse is one page of the movement listing.
type MovementPageResponse struct {
	Movements   []MovementResponse `json:"movements"`
	TotalCount  int64              `json:"totalCount"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
}

// FromPage creates MovementPageResponse from a domain page.
func FromPage(p *movement.Page) MovementPageResponse {
	out := MovementPageResponse{
		Movements:   make([]MovementResponse, 0, len(p.Movements)),
		TotalCount:  p.TotalCount,
		TotalPages:  p.TotalPages,
		CurrentPage: p.CurrentPage,
	}
	for _, e := range p.Movements {
		out.Movements = append(out.Movements, FromEnriched(e))
	}
	return out
}

// SearchResponse is the capped search result.
type SearchResponse struct {
	Movements []MovementResponse `json:"movements"`
	Truncated bool               `json:"truncated"`
}

// FromSearchResult creates SearchResponse from the domain result.
func FromSearchResult(r *movement.SearchResult) SearchResponse {
	out := SearchResponse{
		Movements: make([]MovementResponse, 0, len(r.Movements)),
		Truncated: r.Truncated,
	}
	for _, e := range r.Movements {
		out.Movements = append(out.Movements, FromEnriched(e))
	}
	return out
}
