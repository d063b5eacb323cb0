// Package location resolves polymorphic stock-holding points.
// A location is a tagged reference into one of three unrelated catalogs:
// supplier, staff user, or client.
package location

import (
	"context"
	"fmt"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
)

// Kind is the catalog a location reference points into.
type Kind string

const (
	KindSupplier Kind = "supplier"
	KindUser     Kind = "user"
	KindClient   Kind = "client"
)

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSupplier, KindUser, KindClient:
		return true
	}
	return false
}

// Reference is a tagged variant pointing at one catalog entry.
// It is the composite location half of a ledger row's identity.
type Reference struct {
	Kind Kind  `db:"location_type" json:"locationType"`
	ID   id.ID `db:"location_id" json:"locationId"`
}

// NewReference builds a Reference, validating the kind tag.
func NewReference(kind string, locID id.ID) (Reference, error) {
	k := Kind(kind)
	if !k.Valid() {
		return Reference{}, apperror.NewInvalidLocationType(kind)
	}
	return Reference{Kind: k, ID: locID}, nil
}

// Key returns the location half of the ledger row key.
// One ledger row exists per (product, Key()).
func (r Reference) Key() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// Equal reports identity of kind and id.
func (r Reference) Equal(other Reference) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.Kind == "" && id.IsNil(r.ID)
}

// Identity is the display shape of a resolved location.
type Identity struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name"`
}

// Catalog answers existence and display-name lookups for one kind.
// Implementations are read-only views over the surrounding application's
// supplier/user/client tables.
type Catalog interface {
	// FindByID returns the display identity, or a not-found error.
	FindByID(ctx context.Context, entityID id.ID) (Identity, error)

	// SearchIDs returns ids of entries whose name matches term.
	// Used by movement search to match history rows by catalog names.
	SearchIDs(ctx context.Context, term string) ([]id.ID, error)
}
