package masterdata

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

type memoryRepo struct {
	products       map[string]*Product
	counterparties map[string]*Counterparty
	banks          map[string]*Bank
	currencies     map[string]*Currency
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:       make(map[string]*Product),
		counterparties: make(map[string]*Counterparty),
		banks:          make(map[string]*Bank),
		currencies:     make(map[string]*Currency),
	}
}

func (r *memoryRepo) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	stored := p
	r.products[p.ID] = &stored
	return &stored, nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("masterdata: product %s: %w", id, shared.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, p Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return fmt.Errorf("masterdata: product %s: %w", p.ID, shared.ErrNotFound)
	}
	stored := p
	r.products[p.ID] = &stored
	return nil
}

func (r *memoryRepo) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("masterdata: product %s: %w", id, shared.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) ApplyStockDeltas(ctx context.Context, deltas []StockDelta) error {
	for _, d := range deltas {
		p, ok := r.products[d.ProductID]
		if !ok {
			return fmt.Errorf("masterdata: product %s: %w", d.ProductID, shared.ErrNotFound)
		}
		if p.Stock+d.Delta < 0 {
			return ErrNegativeStock
		}
	}
	for _, d := range deltas {
		r.products[d.ProductID].Stock += d.Delta
	}
	return nil
}

func (r *memoryRepo) CreateCounterparty(ctx context.Context, c Counterparty) (*Counterparty, error) {
	stored := c
	r.counterparties[c.ID] = &stored
	return &stored, nil
}

func (r *memoryRepo) GetCounterparty(ctx context.Context, id string) (*Counterparty, error) {
	c, ok := r.counterparties[id]
	if !ok {
		return nil, fmt.Errorf("masterdata: counterparty %s: %w", id, shared.ErrNotFound)
	}
	out := *c
	return &out, nil
}

func (r *memoryRepo) ListCounterparties(ctx context.Context, kind CounterpartyKind) ([]Counterparty, error) {
	var out []Counterparty
	for _, c := range r.counterparties {
		if kind != "" && c.Kind != kind {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *memoryRepo) DeleteCounterparty(ctx context.Context, id string) error {
	if _, ok := r.counterparties[id]; !ok {
		return fmt.Errorf("masterdata: counterparty %s: %w", id, shared.ErrNotFound)
	}
	delete(r.counterparties, id)
	return nil
}

func (r *memoryRepo) FindBankByName(ctx context.Context, name string) (*Bank, error) {
	b, ok := r.banks[name]
	if !ok {
		return nil, fmt.Errorf("masterdata: bank %q: %w", name, shared.ErrNotFound)
	}
	return b, nil
}

func (r *memoryRepo) CreateBank(ctx context.Context, b Bank) (*Bank, error) {
	stored := b
	r.banks[b.Name] = &stored
	return &stored, nil
}

func (r *memoryRepo) FindCurrencyByCode(ctx context.Context, code string) (*Currency, error) {
	c, ok := r.currencies[code]
	if !ok {
		return nil, fmt.Errorf("masterdata: currency %q: %w", code, shared.ErrNotFound)
	}
	return c, nil
}

func (r *memoryRepo) CreateCurrency(ctx context.Context, c Currency) (*Currency, error) {
	stored := c
	r.currencies[c.Code] = &stored
	return &stored, nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateProduct(context.Background(), "  ", 1, 0)
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.CreateProduct(context.Background(), "Rice 1kg", -1, 0)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreateProduct(context.Background(), "Rice 1kg", 4.5, -3)
	require.ErrorIs(t, err, ErrNegativeStock)

	p, err := svc.CreateProduct(context.Background(), " Rice 1kg ", 4.5, 12)
	require.NoError(t, err)
	require.Equal(t, "Rice 1kg", p.Name)
	require.Equal(t, 12.0, p.Stock)
}

func TestUpdateProductKeepsStock(t *testing.T) {
	svc := NewService(newMemoryRepo())
	p, err := svc.CreateProduct(context.Background(), "Rice 1kg", 4.5, 12)
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), p.ID, "Rice 1kg Premium", 5.25)
	require.NoError(t, err)
	require.Equal(t, "Rice 1kg Premium", updated.Name)
	require.Equal(t, 5.25, updated.Price)
	require.Equal(t, 12.0, updated.Stock)
}

func TestApplyStockDeltasAtomicFloor(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	a, err := svc.CreateProduct(context.Background(), "A", 1, 10)
	require.NoError(t, err)
	b, err := svc.CreateProduct(context.Background(), "B", 1, 2)
	require.NoError(t, err)

	err = svc.ApplyStockDeltas(context.Background(), []StockDelta{
		{ProductID: a.ID, Delta: -5},
		{ProductID: b.ID, Delta: -3},
	})
	require.ErrorIs(t, err, ErrNegativeStock)

	// The failing batch must leave every level untouched.
	got, err := svc.GetProduct(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, 10.0, got.Stock)

	require.NoError(t, svc.ApplyStockDeltas(context.Background(), []StockDelta{
		{ProductID: a.ID, Delta: -5},
		{ProductID: b.ID, Delta: 4},
	}))
	got, err = svc.GetProduct(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, 6.0, got.Stock)
}

func TestEnsureBankAndCurrency(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	b1, err := svc.EnsureBank(context.Background(), " First National ")
	require.NoError(t, err)
	b2, err := svc.EnsureBank(context.Background(), "First National")
	require.NoError(t, err)
	require.Equal(t, b1.ID, b2.ID)
	require.Len(t, repo.banks, 1)

	c1, err := svc.EnsureCurrency(context.Background(), "usd")
	require.NoError(t, err)
	require.Equal(t, "USD", c1.Code)
	c2, err := svc.EnsureCurrency(context.Background(), "USD ")
	require.NoError(t, err)
	require.Equal(t, c1.ID, c2.ID)
	require.Len(t, repo.currencies, 1)
}

func TestCounterpartyKind(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateCounterparty(context.Background(), "Orchard Foods", "supplier", "")
	require.Error(t, err)

	cp, err := svc.CreateCounterparty(context.Background(), "Orchard Foods", CounterpartyVendor, "555-0101")
	require.NoError(t, err)
	require.Equal(t, CounterpartyVendor, cp.Kind)

	vendors, err := svc.ListCounterparties(context.Background(), CounterpartyVendor)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	customers, err := svc.ListCounterparties(context.Background(), CounterpartyCustomer)
	require.NoError(t, err)
	require.Empty(t, customers)
}
