package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/core/types"
	"clinstock/internal/domain/location"
)

// memRepo is an in-memory Repository keyed by (product, location).
type memRepo struct {
	rows map[string]*StockLocation
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*StockLocation)}
}

func key(productID id.ID, ref location.Reference) string {
	return productID.String() + "|" + ref.Key()
}

func (m *memRepo) GetForUpdate(ctx context.Context, productID id.ID, ref location.Reference) (*StockLocation, error) {
	row, ok := m.rows[key(productID, ref)]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memRepo) Create(ctx context.Context, row *StockLocation) error {
	cp := *row
	m.rows[key(row.ProductID, row.Location())] = &cp
	return nil
}

func (m *memRepo) Update(ctx context.Context, row *StockLocation) error {
	cp := *row
	m.rows[key(row.ProductID, row.Location())] = &cp
	return nil
}

func (m *memRepo) ListByProduct(ctx context.Context, productID id.ID) ([]StockLocation, error) {
	var out []StockLocation
	for _, row := range m.rows {
		if row.ProductID == productID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memRepo) SumByProduct(ctx context.Context, productID id.ID) (int64, error) {
	var total int64
	for _, row := range m.rows {
		if row.ProductID == productID {
			total += row.Quantity
		}
	}
	return total, nil
}

func supplierRef() location.Reference {
	return location.Reference{Kind: location.KindSupplier, ID: id.New()}
}

func TestIncrease_CreatesRowLazily(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	productID := id.New()
	ref := supplierRef()
	price := types.MustMoney("12.50")
	sku := "LOT-42"

	row, err := svc.Increase(context.Background(), productID, ref, 10, Defaults{Price: &price, SKU: &sku})
	require.NoError(t, err)
	assert.Equal(t, int64(10), row.Quantity)
	assert.Equal(t, "LOT-42", *row.SKU)
	require.NotNil(t, row.Price)
	assert.True(t, price.Equal(*row.Price))
}

func TestIncrease_MetadataLastWriteWins(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	productID := id.New()
	ref := supplierRef()
	firstSKU, secondSKU := "LOT-1", "LOT-2"
	expiry := time.Now().UTC().AddDate(1, 0, 0)

	_, err := svc.Increase(context.Background(), productID, ref, 5, Defaults{SKU: &firstSKU, ExpiryDate: &expiry})
	require.NoError(t, err)

	// Non-null incoming sku overwrites; nil expiry leaves the stored value.
	row, err := svc.Increase(context.Background(), productID, ref, 3, Defaults{SKU: &secondSKU})
	require.NoError(t, err)
	assert.Equal(t, int64(8), row.Quantity)
	assert.Equal(t, "LOT-2", *row.SKU)
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, expiry, *row.ExpiryDate)
}

func TestDecrease_InsufficientOnAbsentRow(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Decrease(context.Background(), id.New(), supplierRef(), 1)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(0), appErr.Details["available"])
}

func TestDecrease_InsufficientQuantityLeavesRowUnchanged(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	productID := id.New()
	ref := supplierRef()

	_, err := svc.Increase(context.Background(), productID, ref, 2, Defaults{})
	require.NoError(t, err)

	_, err = svc.Decrease(context.Background(), productID, ref, 3)
	assert.True(t, apperror.IsInsufficientStock(err))

	total, err := svc.TotalByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestDecrease_NeverNegative(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	productID := id.New()
	ref := supplierRef()
	ctx := context.Background()

	_, err := svc.Increase(ctx, productID, ref, 5, Defaults{})
	require.NoError(t, err)

	// Two outbound calls for the full balance: one succeeds, one rejects.
	_, first := svc.Decrease(ctx, productID, ref, 5)
	_, second := svc.Decrease(ctx, productID, ref, 5)
	require.NoError(t, first)
	assert.True(t, apperror.IsInsufficientStock(second))

	for _, row := range repo.rows {
		assert.GreaterOrEqual(t, row.Quantity, int64(0))
	}
}

func TestTransfer_ConservesProductTotal(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	productID := id.New()
	from := supplierRef()
	to := location.Reference{Kind: location.KindUser, ID: id.New()}
	ctx := context.Background()

	_, err := svc.Increase(ctx, productID, from, 10, Defaults{})
	require.NoError(t, err)

	src, err := svc.Decrease(ctx, productID, from, 4)
	require.NoError(t, err)
	_, err = svc.Increase(ctx, productID, to, 4, DefaultsFrom(src))
	require.NoError(t, err)

	total, err := svc.TotalByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	rows, err := svc.LocationsByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestIncrease_RejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Increase(context.Background(), id.New(), supplierRef(), 0, Defaults{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = svc.Decrease(context.Background(), id.New(), supplierRef(), -1)
	assert.Error(t, err)
}
