package movement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/core/types"
	"clinstock/internal/domain/ledger"
	"clinstock/internal/domain/location"
)

// errConnReset stands in for a driver-level failure in the fakes.
var errConnReset = errors.New("connection reset by peer")

// --- fakes ---

// memLedgerRepo is only touched inside the fake tx manager's critical
// section, so it needs no locking of its own. Setting failKey makes
// writes to that ledger row fail the way the real repository reports a
// lost connection.
type memLedgerRepo struct {
	rows    map[string]*ledger.StockLocation
	failKey string
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{rows: make(map[string]*ledger.StockLocation)}
}

func ledgerKey(productID id.ID, ref location.Reference) string {
	return productID.String() + "|" + ref.Key()
}

func (m *memLedgerRepo) GetForUpdate(ctx context.Context, productID id.ID, ref location.Reference) (*ledger.StockLocation, error) {
	row, ok := m.rows[ledgerKey(productID, ref)]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memLedgerRepo) Create(ctx context.Context, row *ledger.StockLocation) error {
	key := ledgerKey(row.ProductID, row.Location())
	if err := m.failWrite(key); err != nil {
		return err
	}
	cp := *row
	m.rows[key] = &cp
	return nil
}

func (m *memLedgerRepo) Update(ctx context.Context, row *ledger.StockLocation) error {
	key := ledgerKey(row.ProductID, row.Location())
	if err := m.failWrite(key); err != nil {
		return err
	}
	cp := *row
	m.rows[key] = &cp
	return nil
}

func (m *memLedgerRepo) failWrite(key string) error {
	if m.failKey != "" && m.failKey == key {
		return apperror.NewPersistence(fmt.Errorf("write stock location: %w", errConnReset))
	}
	return nil
}

func (m *memLedgerRepo) ListByProduct(ctx context.Context, productID id.ID) ([]ledger.StockLocation, error) {
	var out []ledger.StockLocation
	for _, row := range m.rows {
		if row.ProductID == productID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memLedgerRepo) SumByProduct(ctx context.Context, productID id.ID) (int64, error) {
	var total int64
	for _, row := range m.rows {
		if row.ProductID == productID {
			total += row.Quantity
		}
	}
	return total, nil
}

func (m *memLedgerRepo) quantity(productID id.ID, ref location.Reference) int64 {
	row, ok := m.rows[ledgerKey(productID, ref)]
	if !ok {
		return 0
	}
	return row.Quantity
}

func (m *memLedgerRepo) snapshot() map[string]*ledger.StockLocation {
	snap := make(map[string]*ledger.StockLocation, len(m.rows))
	for k, v := range m.rows {
		cp := *v
		snap[k] = &cp
	}
	return snap
}

type memJournal struct {
	rows    []Movement
	failing bool
}

func (m *memJournal) Create(ctx context.Context, mov *Movement) error {
	if m.failing {
		return apperror.NewPersistence(fmt.Errorf("insert movement: %w", errConnReset))
	}
	m.rows = append(m.rows, *mov)
	return nil
}

func (m *memJournal) List(ctx context.Context, page, limit int) ([]Movement, int64, error) {
	return paginate(m.rows, page, limit), int64(len(m.rows)), nil
}

func (m *memJournal) Search(ctx context.Context, term string, locationIDs []id.ID, limit int) ([]Movement, error) {
	idSet := make(map[id.ID]struct{}, len(locationIDs))
	for _, lid := range locationIDs {
		idSet[lid] = struct{}{}
	}
	var out []Movement
	for _, row := range m.rows {
		if len(out) == limit {
			break
		}
		if strings.Contains(string(row.Type), term) ||
			strings.Contains(row.Reason, term) || strings.Contains(row.Notes, term) {
			out = append(out, row)
			continue
		}
		if row.FromLocationID != nil {
			if _, ok := idSet[*row.FromLocationID]; ok {
				out = append(out, row)
				continue
			}
		}
		if row.ToLocationID != nil {
			if _, ok := idSet[*row.ToLocationID]; ok {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (m *memJournal) ListByProduct(ctx context.Context, productID id.ID, page, limit int) ([]Movement, int64, error) {
	var rows []Movement
	for _, row := range m.rows {
		if row.ProductID == productID {
			rows = append(rows, row)
		}
	}
	return paginate(rows, page, limit), int64(len(rows)), nil
}

func paginate(rows []Movement, page, limit int) []Movement {
	start := (page - 1) * limit
	if start >= len(rows) {
		return nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

type fakeCatalog struct {
	entries map[id.ID]location.Identity
}

func (f *fakeCatalog) FindByID(ctx context.Context, entityID id.ID) (location.Identity, error) {
	identity, ok := f.entries[entityID]
	if !ok {
		return location.Identity{}, apperror.NewNotFound("entity", entityID)
	}
	return identity, nil
}

func (f *fakeCatalog) SearchIDs(ctx context.Context, term string) ([]id.ID, error) {
	var out []id.ID
	for entityID, identity := range f.entries {
		if strings.Contains(strings.ToLower(identity.Name), strings.ToLower(term)) {
			out = append(out, entityID)
		}
	}
	return out, nil
}

type fakeProducts struct {
	entries map[id.ID]ProductInfo
}

func (f *fakeProducts) FindByID(ctx context.Context, productID id.ID) (ProductInfo, error) {
	info, ok := f.entries[productID]
	if !ok {
		return ProductInfo{}, apperror.NewNotFound("product", productID)
	}
	return info, nil
}

func (f *fakeProducts) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, ok := f.entries[productID]
	return ok, nil
}

// fakeTxManager serializes callers and restores the ledger store when fn
// fails, mirroring a database rollback.
type fakeTxManager struct {
	mu     sync.Mutex
	store  *memLedgerRepo
	begins int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begins++
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.rows = snap
		return err
	}
	return nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	journal  *memJournal
	ledger   *memLedgerRepo
	txm      *fakeTxManager
	resolver *location.Resolver

	productID  id.ID
	supplierID id.ID
	userID     id.ID
	clientID   id.ID
	actorID    id.ID
}

func newFixture() *fixture {
	f := &fixture{
		journal:    &memJournal{},
		ledger:     newMemLedgerRepo(),
		productID:  id.New(),
		supplierID: id.New(),
		userID:     id.New(),
		clientID:   id.New(),
		actorID:    id.New(),
	}
	f.txm = &fakeTxManager{store: f.ledger}

	suppliers := &fakeCatalog{entries: map[id.ID]location.Identity{
		f.supplierID: {ID: f.supplierID, Name: "Central Pharma"},
	}}
	users := &fakeCatalog{entries: map[id.ID]location.Identity{
		f.userID:  {ID: f.userID, Name: "Dra. Helena"},
		f.actorID: {ID: f.actorID, Name: "Admin"},
	}}
	clients := &fakeCatalog{entries: map[id.ID]location.Identity{
		f.clientID: {ID: f.clientID, Name: "Paciente Souza"},
	}}
	f.resolver = location.NewResolver(suppliers, users, clients)

	f.svc = NewService(f.journal, ledger.NewService(f.ledger), f.resolver, f.txm)
	return f
}

func (f *fixture) entradaInput(qty int64) *CreateInput {
	sku := "LOT-2024-001"
	price := types.MustMoney("12.50")
	return &CreateInput{
		ProductID: f.productID,
		Type:      TypeEntrada,
		Quantity:  qty,
		To:        &RefInput{ID: f.userID, Type: string(location.KindUser)},
		UserID:    f.actorID,
		SKU:       &sku,
		UnitPrice: &price,
	}
}

func (f *fixture) saidaInput(qty int64) *CreateInput {
	sku := "LOT-2024-001"
	return &CreateInput{
		ProductID: f.productID,
		Type:      TypeSaida,
		Quantity:  qty,
		From:      &RefInput{ID: f.userID, Type: string(location.KindUser)},
		UserID:    f.actorID,
		SKU:       &sku,
		Reason:    "uso em procedimento",
	}
}

func (f *fixture) transferInput(qty int64) *CreateInput {
	sku := "LOT-2024-001"
	return &CreateInput{
		ProductID: f.productID,
		Type:      TypeTransferencia,
		Quantity:  qty,
		From:      &RefInput{ID: f.userID, Type: string(location.KindUser)},
		To:        &RefInput{ID: f.clientID, Type: string(location.KindClient)},
		UserID:    f.actorID,
		SKU:       &sku,
		Reason:    "dispensa ao paciente",
	}
}

func (f *fixture) userRef() location.Reference {
	return location.Reference{Kind: location.KindUser, ID: f.userID}
}

// --- tests ---

func TestCreate_EntradaThenSaida(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(10))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.saidaInput(4))
	require.NoError(t, err)

	assert.EqualValues(t, 6, f.ledger.quantity(f.productID, f.userRef()))
	assert.Len(t, f.journal.rows, 2)
	assert.Equal(t, TypeEntrada, f.journal.rows[0].Type)
	assert.Equal(t, TypeSaida, f.journal.rows[1].Type)
}

func TestCreate_EntradaComputesTotalValue(t *testing.T) {
	f := newFixture()

	m, err := f.svc.Create(context.Background(), f.entradaInput(10))
	require.NoError(t, err)
	require.NotNil(t, m.TotalValue)
	assert.True(t, m.TotalValue.Equal(types.MustMoney("125.00")))
}

func TestCreate_TransferMovesQuantity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(10))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.transferInput(3))
	require.NoError(t, err)

	clientRef := location.Reference{Kind: location.KindClient, ID: f.clientID}
	assert.EqualValues(t, 7, f.ledger.quantity(f.productID, f.userRef()))
	assert.EqualValues(t, 3, f.ledger.quantity(f.productID, clientRef))

	total, err := f.ledger.SumByProduct(ctx, f.productID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total, "transfer must conserve the product total")
}

func TestCreate_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(2))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.transferInput(5))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.EqualValues(t, 2, f.ledger.quantity(f.productID, f.userRef()))
	assert.Len(t, f.journal.rows, 1, "rejected movement must not be journaled")
}

func TestCreate_JournalFailureRollsBackLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(10))
	require.NoError(t, err)

	f.journal.failing = true
	_, err = f.svc.Create(ctx, f.saidaInput(4))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "storage failures must surface as application errors")
	assert.Equal(t, apperror.CodePersistence, appErr.Code)

	assert.EqualValues(t, 10, f.ledger.quantity(f.productID, f.userRef()),
		"ledger change must not survive a failed journal insert")
}

func TestCreate_TransferCreditFailureRollsBackDebit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(10))
	require.NoError(t, err)

	// The destination write fails after the source was already debited.
	clientRef := location.Reference{Kind: location.KindClient, ID: f.clientID}
	f.ledger.failKey = ledgerKey(f.productID, clientRef)

	_, err = f.svc.Create(ctx, f.transferInput(3))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePersistence, appErr.Code)

	assert.EqualValues(t, 10, f.ledger.quantity(f.productID, f.userRef()),
		"debit must not survive a failed credit")
	assert.EqualValues(t, 0, f.ledger.quantity(f.productID, clientRef))
	assert.Len(t, f.journal.rows, 1, "failed transfer must not be journaled")
}

func TestCreate_SameLocationTransferRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(10))
	require.NoError(t, err)

	in := f.transferInput(3)
	in.To = &RefInput{ID: f.userID, Type: string(location.KindUser)}

	_, err = f.svc.Create(ctx, in)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSameLocation, appErr.Code)

	assert.EqualValues(t, 10, f.ledger.quantity(f.productID, f.userRef()))
	assert.Len(t, f.journal.rows, 1)
}

func TestCreate_UnknownLocationRejectedBeforeLedger(t *testing.T) {
	f := newFixture()

	in := f.entradaInput(10)
	in.To = &RefInput{ID: id.New(), Type: string(location.KindUser)}

	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeLocationNotFound, appErr.Code)
	assert.Zero(t, f.txm.begins, "catalog failures must not open a transaction")
}

func TestCreate_InvalidLocationType(t *testing.T) {
	f := newFixture()

	in := f.entradaInput(10)
	in.To.Type = "warehouse"

	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidLocationType, appErr.Code)
}

func TestCreate_ValidationByType(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		input  func() *CreateInput
	}{
		{
			name:   "entrada without destination",
			input:  func() *CreateInput { return f.entradaInput(5) },
			mutate: func(in *CreateInput) { in.To = nil },
		},
		{
			name:   "saida without source",
			input:  func() *CreateInput { return f.saidaInput(5) },
			mutate: func(in *CreateInput) { in.From = nil },
		},
		{
			name:   "saida without reason",
			input:  func() *CreateInput { return f.saidaInput(5) },
			mutate: func(in *CreateInput) { in.Reason = "" },
		},
		{
			name:   "saida without sku",
			input:  func() *CreateInput { return f.saidaInput(5) },
			mutate: func(in *CreateInput) { in.SKU = nil },
		},
		{
			name:   "transfer without destination",
			input:  func() *CreateInput { return f.transferInput(5) },
			mutate: func(in *CreateInput) { in.To = nil },
		},
		{
			name:   "zero quantity",
			input:  func() *CreateInput { return f.entradaInput(0) },
			mutate: func(in *CreateInput) {},
		},
		{
			name:   "negative quantity",
			input:  func() *CreateInput { return f.entradaInput(-3) },
			mutate: func(in *CreateInput) {},
		},
		{
			name:   "unknown type",
			input:  func() *CreateInput { return f.entradaInput(5) },
			mutate: func(in *CreateInput) { in.Type = "ajuste" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input()
			tt.mutate(in)

			_, err := f.svc.Create(ctx, in)
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestCreate_ConcurrentSaidaOneWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.entradaInput(5))
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.saidaInput(5))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsInsufficientStock(err):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.EqualValues(t, 0, f.ledger.quantity(f.productID, f.userRef()))
}
