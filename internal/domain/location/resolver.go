package location

import (
	"context"
	"fmt"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
)

// Resolver validates and resolves location references against the catalogs.
// One catalog per kind, dispatched by the reference's tag. No side effects.
type Resolver struct {
	catalogs map[Kind]Catalog
}

// NewResolver creates a resolver over the three catalogs.
func NewResolver(suppliers, users, clients Catalog) *Resolver {
	return &Resolver{
		catalogs: map[Kind]Catalog{
			KindSupplier: suppliers,
			KindUser:     users,
			KindClient:   clients,
		},
	}
}

// Resolve looks the reference up in its catalog and returns the display
// identity. Fails with InvalidLocationType for an unknown kind and
// LocationNotFound when the catalog has no such entry.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (Identity, error) {
	catalog, ok := r.catalogs[ref.Kind]
	if !ok {
		return Identity{}, apperror.NewInvalidLocationType(string(ref.Kind))
	}

	identity, err := catalog.FindByID(ctx, ref.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Identity{}, apperror.NewLocationNotFound(string(ref.Kind), ref.ID.String())
		}
		return Identity{}, fmt.Errorf("resolve %s: %w", ref.Kind, err)
	}

	return identity, nil
}

// ResolveDisplay resolves a reference for history enrichment.
// Returns nil instead of an error when the entry no longer exists: history
// display is best-effort for location identity.
func (r *Resolver) ResolveDisplay(ctx context.Context, ref Reference) *Identity {
	if ref.IsZero() {
		return nil
	}
	identity, err := r.Resolve(ctx, ref)
	if err != nil {
		return nil
	}
	return &identity
}

// SearchIDsByName collects ids from every catalog whose entry name matches
// term. Lookup failures in one catalog do not fail the whole search.
func (r *Resolver) SearchIDsByName(ctx context.Context, term string) []id.ID {
	var ids []id.ID
	for _, kind := range []Kind{KindSupplier, KindUser, KindClient} {
		found, err := r.catalogs[kind].SearchIDs(ctx, term)
		if err != nil {
			continue
		}
		ids = append(ids, found...)
	}
	return ids
}
