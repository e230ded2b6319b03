package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// RepositoryPort loads the record collections the engine folds over.
type RepositoryPort interface {
	ListTransactions(ctx context.Context, kind ledger.TransactionKind) ([]ledger.Transaction, error)
	ListProducts(ctx context.Context) ([]masterdata.Product, error)
	ListCashEntries(ctx context.Context, kind EntryKind) ([]CashEntry, error)
	CreateCashEntry(ctx context.Context, entry CashEntry) (*CashEntry, error)
	DeleteCashEntry(ctx context.Context, id string) error
}

// Service assembles period reports from raw records. It reads everything
// fresh per request; no aggregate is cached or incrementally maintained.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ErrAmountNotPositive indicates a zero or negative manual entry amount.
var ErrAmountNotPositive = errors.New("valuation: amount must be positive")

// RecordCashEntry stores a manual income or expense.
func (s *Service) RecordCashEntry(ctx context.Context, kind EntryKind, date time.Time, amount float64, description string) (*CashEntry, error) {
	if kind != EntryIncome && kind != EntryExpense {
		return nil, errors.New("valuation: entry kind must be income or expense")
	}
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	now := s.now()
	if date.IsZero() {
		date = now
	}
	return s.repo.CreateCashEntry(ctx, CashEntry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Date:        date,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	})
}

// DeleteCashEntry removes a manual entry.
func (s *Service) DeleteCashEntry(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("valuation: entry id required")
	}
	return s.repo.DeleteCashEntry(ctx, id)
}

// ListCashEntries returns manual entries of one kind, or all when empty.
func (s *Service) ListCashEntries(ctx context.Context, kind EntryKind) ([]CashEntry, error) {
	return s.repo.ListCashEntries(ctx, kind)
}

// BuildPeriodReport computes the full report for a window: moving-average
// costing over all purchase history, opening/closing inventory, COGS,
// profit and cash flow.
func (s *Service) BuildPeriodReport(ctx context.Context, window shared.Window) (*PeriodReport, error) {
	if window.From.IsZero() || window.To.IsZero() || window.To.Before(window.From) {
		return nil, shared.ErrInvalidWindow
	}
	sales, err := s.repo.ListTransactions(ctx, ledger.KindSale)
	if err != nil {
		return nil, err
	}
	purchases, err := s.repo.ListTransactions(ctx, ledger.KindPurchase)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	incomes, err := s.repo.ListCashEntries(ctx, EntryIncome)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListCashEntries(ctx, EntryExpense)
	if err != nil {
		return nil, err
	}

	avgCost := AverageCosts(purchases)
	soldQty := QuantitiesInWindow(sales, window)
	purchasedQty := QuantitiesInWindow(purchases, window)
	openingValue, closingValue := OpeningClosing(products, soldQty, purchasedQty, avgCost)

	purchasesValue := ValueInWindow(purchases, window)
	salesRevenue := ValueInWindow(sales, window)
	cogs := COGS(openingValue, purchasesValue, closingValue)

	otherIncome := SumEntries(incomes, EntryIncome, window)
	otherExpenses := SumEntries(expenses, EntryExpense, window)
	grossProfit, netProfit := ProfitMetrics(salesRevenue, cogs, otherIncome, otherExpenses)

	entries := append(append([]CashEntry(nil), incomes...), expenses...)
	flow := ComputeCashFlow(sales, purchases, entries, window)

	return &PeriodReport{
		Window:         window,
		SalesRevenue:   salesRevenue,
		PurchasesValue: purchasesValue,
		OpeningValue:   openingValue,
		ClosingValue:   closingValue,
		COGS:           cogs,
		GrossProfit:    grossProfit,
		OtherIncome:    otherIncome,
		OtherExpenses:  otherExpenses,
		NetProfit:      netProfit,
		Cash:           flow,
		GeneratedAt:    s.now(),
	}, nil
}
