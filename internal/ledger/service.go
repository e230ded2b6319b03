package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
)

// RepositoryPort abstracts transaction persistence.
type RepositoryPort interface {
	CreateTransaction(ctx context.Context, tx Transaction) (*Transaction, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, kind TransactionKind) ([]Transaction, error)
	// UpdateTransactionPayment applies the payment fields only when the
	// stored version still matches, returning ErrVersionConflict otherwise.
	UpdateTransactionPayment(ctx context.Context, id string, version int64, update PaymentUpdate) (*Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// StockPort moves product stock when a sale or purchase completes.
type StockPort interface {
	ApplyStockDeltas(ctx context.Context, deltas []masterdata.StockDelta) error
}

// CounterpartyPort resolves counterparty records.
type CounterpartyPort interface {
	GetCounterparty(ctx context.Context, id string) (*masterdata.Counterparty, error)
}

// IdempotencyPort deduplicates payment submissions by client reference.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, reference, module string) error
	Delete(ctx context.Context, reference string) error
}

// PaymentUpdate carries the mutable payment fields of a transaction.
type PaymentUpdate struct {
	AmountPaid    float64
	Balance       float64
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	CheckDetails  *CheckDetails
	UpdatedAt     time.Time
}

// CreateTransactionInput describes a new sale or purchase.
type CreateTransactionInput struct {
	Kind           TransactionKind
	Date           time.Time
	CounterpartyID string
	LineItems      []LineItem
	InitialPayment float64
	Method         PaymentMethod
	CheckDetails   *CheckDetails
}

// RecordPaymentInput describes an additional payment on a transaction.
type RecordPaymentInput struct {
	TransactionID      string
	Amount             float64
	Method             PaymentMethod
	CheckDetails       *CheckDetails
	Reference          string
	ConfirmOverpayment bool
}

// PaymentOnlyInput describes a standalone settlement, advance or deposit.
type PaymentOnlyInput struct {
	Kind           TransactionKind
	Date           time.Time
	CounterpartyID string
	Amount         float64
	Method         PaymentMethod
	PaymentType    PaymentType
	CheckDetails   *CheckDetails
	Reference      string
}

// PaymentResult is the outcome of RecordPayment. Overpaid flags a balance
// pushed below zero so callers can surface a confirmation.
type PaymentResult struct {
	Transaction *Transaction
	Overpaid    bool
}

// Service implements the balance ledger.
type Service struct {
	repo           RepositoryPort
	stock          StockPort
	counterparties CounterpartyPort
	idempotency    IdempotencyPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, stock StockPort, counterparties CounterpartyPort, idem IdempotencyPort) *Service {
	return &Service{repo: repo, stock: stock, counterparties: counterparties, idempotency: idem}
}

// CreateTransaction records a sale or purchase with snapshotted prices,
// applies the stock movement and persists the transaction.
func (s *Service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*Transaction, error) {
	if input.Kind != KindSale && input.Kind != KindPurchase {
		return nil, errors.New("ledger: kind must be sale or purchase")
	}
	if len(input.LineItems) == 0 {
		return nil, ErrNoLineItems
	}
	if input.InitialPayment < 0 {
		return nil, ErrAmountNotPositive
	}
	for _, item := range input.LineItems {
		if item.ProductID == "" {
			return nil, errors.New("ledger: line item product id required")
		}
		if item.Quantity <= 0 {
			return nil, errors.New("ledger: line item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return nil, errors.New("ledger: line item unit price must be >= 0")
		}
	}
	method := input.Method
	if method == "" {
		method = MethodCash
	}
	if method == MethodCheck && input.InitialPayment > 0 && input.CheckDetails == nil {
		return nil, ErrCheckDetailsRequired
	}
	cp, err := s.counterparties.GetCounterparty(ctx, input.CounterpartyID)
	if err != nil {
		return nil, err
	}

	var total float64
	deltas := make([]masterdata.StockDelta, 0, len(input.LineItems))
	for _, item := range input.LineItems {
		total += item.Total()
		delta := item.Quantity
		if input.Kind == KindSale {
			delta = -delta
		}
		deltas = append(deltas, masterdata.StockDelta{ProductID: item.ProductID, Delta: delta})
	}
	if err := s.stock.ApplyStockDeltas(ctx, deltas); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	tx := Transaction{
		ID:               uuid.NewString(),
		Kind:             input.Kind,
		Date:             date,
		CounterpartyID:   cp.ID,
		CounterpartyName: cp.Name,
		LineItems:        input.LineItems,
		TotalAmount:      total,
		AmountPaid:       input.InitialPayment,
		Balance:          total - input.InitialPayment,
		PaymentStatus:    DeriveStatus(input.InitialPayment, total),
		PaymentMethod:    method,
		CheckDetails:     input.CheckDetails,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		// Undo the stock movement so a failed insert leaves no trace.
		for i := range deltas {
			deltas[i].Delta = -deltas[i].Delta
		}
		_ = s.stock.ApplyStockDeltas(ctx, deltas)
		return nil, err
	}
	return created, nil
}

// RecordPayment applies an additional payment to an existing transaction.
// Overpayment is permitted but must be confirmed by the caller; check
// payments are rejected outright until details exist.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if input.Method == MethodCheck && input.CheckDetails == nil {
		return nil, ErrCheckDetailsRequired
	}
	tx, err := s.repo.GetTransaction(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.IsPaymentOnly {
		return nil, ErrPaymentOnlyImmutable
	}

	newPaid := tx.AmountPaid + input.Amount
	newBalance := tx.TotalAmount - newPaid
	overpaid := input.Amount > tx.Balance
	if overpaid && !input.ConfirmOverpayment {
		return nil, fmt.Errorf("%w: balance %.2f, payment %.2f", ErrOverpaymentUnconfirmed, tx.Balance, input.Amount)
	}

	insertedRef := false
	if s.idempotency != nil && input.Reference != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.Reference, "ledger"); err != nil {
			return nil, err
		}
		insertedRef = true
	}

	method := input.Method
	if method == "" {
		method = tx.PaymentMethod
	}
	details := tx.CheckDetails
	if input.CheckDetails != nil {
		details = input.CheckDetails
	}
	updated, err := s.repo.UpdateTransactionPayment(ctx, tx.ID, tx.Version, PaymentUpdate{
		AmountPaid:    newPaid,
		Balance:       newBalance,
		PaymentStatus: DeriveStatus(newPaid, tx.TotalAmount),
		PaymentMethod: method,
		CheckDetails:  details,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		if insertedRef {
			_ = s.idempotency.Delete(ctx, input.Reference)
		}
		return nil, err
	}
	return &PaymentResult{Transaction: updated, Overpaid: overpaid}, nil
}

// CreatePaymentOnly records a settlement, advance or deposit that carries
// no goods. The resulting balance is negative: credit held on the account.
func (s *Service) CreatePaymentOnly(ctx context.Context, input PaymentOnlyInput) (*Transaction, error) {
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if input.Kind != KindSale && input.Kind != KindPurchase {
		return nil, errors.New("ledger: kind must be sale or purchase")
	}
	switch input.PaymentType {
	case PaymentTypeAccount, PaymentTypeAdvance, PaymentTypeDeposit:
	default:
		return nil, errors.New("ledger: unknown payment type")
	}
	method := input.Method
	if method == "" {
		method = MethodCash
	}
	if method == MethodCheck && input.CheckDetails == nil {
		return nil, ErrCheckDetailsRequired
	}
	cp, err := s.counterparties.GetCounterparty(ctx, input.CounterpartyID)
	if err != nil {
		return nil, err
	}

	insertedRef := false
	if s.idempotency != nil && input.Reference != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.Reference, "ledger"); err != nil {
			return nil, err
		}
		insertedRef = true
	}

	now := time.Now().UTC()
	date := input.Date
	if date.IsZero() {
		date = now
	}
	tx := Transaction{
		ID:               uuid.NewString(),
		Kind:             input.Kind,
		Date:             date,
		CounterpartyID:   cp.ID,
		CounterpartyName: cp.Name,
		TotalAmount:      0,
		AmountPaid:       input.Amount,
		Balance:          -input.Amount,
		PaymentStatus:    StatusPaid,
		PaymentMethod:    method,
		PaymentType:      input.PaymentType,
		IsPaymentOnly:    true,
		CheckDetails:     input.CheckDetails,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		if insertedRef {
			_ = s.idempotency.Delete(ctx, input.Reference)
		}
		return nil, err
	}
	return created, nil
}

// GetTransaction loads one transaction.
func (s *Service) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	if id == "" {
		return nil, errors.New("ledger: transaction id required")
	}
	return s.repo.GetTransaction(ctx, id)
}

// ListTransactions returns transactions of one kind, or all when kind is empty.
func (s *Service) ListTransactions(ctx context.Context, kind TransactionKind) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, kind)
}

// ListOutstanding returns transactions still owing money, optionally
// narrowed by counterparty name.
func (s *Service) ListOutstanding(ctx context.Context, kind TransactionKind, search string) ([]Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, kind)
	if err != nil {
		return nil, err
	}
	return SelectOutstanding(txs, search), nil
}

// DeleteTransaction removes a transaction, propagating not-found distinctly
// so callers can report a record deleted elsewhere.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("ledger: transaction id required")
	}
	return s.repo.DeleteTransaction(ctx, id)
}
