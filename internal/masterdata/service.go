package masterdata

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

// RepositoryPort abstracts persistence for the registries.
type RepositoryPort interface {
	CreateProduct(ctx context.Context, p Product) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
	ApplyStockDeltas(ctx context.Context, deltas []StockDelta) error

	CreateCounterparty(ctx context.Context, c Counterparty) (*Counterparty, error)
	GetCounterparty(ctx context.Context, id string) (*Counterparty, error)
	ListCounterparties(ctx context.Context, kind CounterpartyKind) ([]Counterparty, error)
	DeleteCounterparty(ctx context.Context, id string) error

	FindBankByName(ctx context.Context, name string) (*Bank, error)
	CreateBank(ctx context.Context, b Bank) (*Bank, error)
	FindCurrencyByCode(ctx context.Context, code string) (*Currency, error)
	CreateCurrency(ctx context.Context, c Currency) (*Currency, error)
}

// Service coordinates the master data registries.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateProduct registers a product.
func (s *Service) CreateProduct(ctx context.Context, name string, price, stock float64) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrNegativeStock
	}
	now := time.Now().UTC()
	return s.repo.CreateProduct(ctx, Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, errors.New("masterdata: product id required")
	}
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns the full product registry.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateProduct updates name and price. Stock moves only through ApplyStockDeltas.
func (s *Service) UpdateProduct(ctx context.Context, id, name string, price float64) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = name
	p.Price = price
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateProduct(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

// ApplyStockDeltas moves stock for a set of products atomically.
// A delta that would leave any product negative fails the whole batch.
func (s *Service) ApplyStockDeltas(ctx context.Context, deltas []StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	for _, d := range deltas {
		if d.ProductID == "" {
			return errors.New("masterdata: product id required")
		}
	}
	return s.repo.ApplyStockDeltas(ctx, deltas)
}

// CreateCounterparty registers a customer or vendor.
func (s *Service) CreateCounterparty(ctx context.Context, name string, kind CounterpartyKind, phone string) (*Counterparty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if kind != CounterpartyCustomer && kind != CounterpartyVendor {
		return nil, errors.New("masterdata: counterparty kind must be customer or vendor")
	}
	return s.repo.CreateCounterparty(ctx, Counterparty{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	})
}

// GetCounterparty loads one counterparty.
func (s *Service) GetCounterparty(ctx context.Context, id string) (*Counterparty, error) {
	if id == "" {
		return nil, errors.New("masterdata: counterparty id required")
	}
	return s.repo.GetCounterparty(ctx, id)
}

// ListCounterparties returns the registry, optionally filtered by kind.
func (s *Service) ListCounterparties(ctx context.Context, kind CounterpartyKind) ([]Counterparty, error) {
	return s.repo.ListCounterparties(ctx, kind)
}

// DeleteCounterparty removes a counterparty.
func (s *Service) DeleteCounterparty(ctx context.Context, id string) error {
	return s.repo.DeleteCounterparty(ctx, id)
}

// EnsureBank returns the bank with the given name, creating it when missing.
func (s *Service) EnsureBank(ctx context.Context, name string) (*Bank, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	b, err := s.repo.FindBankByName(ctx, name)
	if err == nil {
		return b, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	return s.repo.CreateBank(ctx, Bank{ID: uuid.NewString(), Name: name})
}

// EnsureCurrency returns the currency with the given code, creating it when missing.
func (s *Service) EnsureCurrency(ctx context.Context, code string) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrNameRequired
	}
	c, err := s.repo.FindCurrencyByCode(ctx, code)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	return s.repo.CreateCurrency(ctx, Currency{ID: uuid.NewString(), Code: code})
}
