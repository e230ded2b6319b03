package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

type memoryLedgerRepo struct {
	txs map[string]*Transaction
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{txs: make(map[string]*Transaction)}
}

func (r *memoryLedgerRepo) CreateTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	stored := tx
	r.txs[tx.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memoryLedgerRepo) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, fmt.Errorf("ledger: transaction %s: %w", id, shared.ErrNotFound)
	}
	out := *tx
	return &out, nil
}

func (r *memoryLedgerRepo) ListTransactions(ctx context.Context, kind TransactionKind) ([]Transaction, error) {
	var out []Transaction
	for _, tx := range r.txs {
		if kind != "" && tx.Kind != kind {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (r *memoryLedgerRepo) UpdateTransactionPayment(ctx context.Context, id string, version int64, update PaymentUpdate) (*Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, fmt.Errorf("ledger: transaction %s: %w", id, shared.ErrNotFound)
	}
	if tx.Version != version {
		return nil, ErrVersionConflict
	}
	tx.AmountPaid = update.AmountPaid
	tx.Balance = update.Balance
	tx.PaymentStatus = update.PaymentStatus
	tx.PaymentMethod = update.PaymentMethod
	tx.CheckDetails = update.CheckDetails
	tx.UpdatedAt = update.UpdatedAt
	tx.Version++
	out := *tx
	return &out, nil
}

func (r *memoryLedgerRepo) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := r.txs[id]; !ok {
		return fmt.Errorf("ledger: transaction %s: %w", id, shared.ErrNotFound)
	}
	delete(r.txs, id)
	return nil
}

type memoryStock struct {
	levels map[string]float64
}

func newMemoryStock(levels map[string]float64) *memoryStock {
	return &memoryStock{levels: levels}
}

func (s *memoryStock) ApplyStockDeltas(ctx context.Context, deltas []masterdata.StockDelta) error {
	for _, d := range deltas {
		if s.levels[d.ProductID]+d.Delta < 0 {
			return masterdata.ErrNegativeStock
		}
	}
	for _, d := range deltas {
		s.levels[d.ProductID] += d.Delta
	}
	return nil
}

type memoryCounterparties map[string]*masterdata.Counterparty

func (m memoryCounterparties) GetCounterparty(ctx context.Context, id string) (*masterdata.Counterparty, error) {
	cp, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("masterdata: counterparty %s: %w", id, shared.ErrNotFound)
	}
	return cp, nil
}

type memoryIdem struct {
	seen map[string]bool
}

func (m *memoryIdem) CheckAndInsert(ctx context.Context, reference, module string) error {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[reference] {
		return shared.ErrIdempotencyConflict
	}
	m.seen[reference] = true
	return nil
}

func (m *memoryIdem) Delete(ctx context.Context, reference string) error {
	delete(m.seen, reference)
	return nil
}

func newTestService(stockLevels map[string]float64) (*Service, *memoryLedgerRepo, *memoryStock) {
	repo := newMemoryLedgerRepo()
	stock := newMemoryStock(stockLevels)
	counterparties := memoryCounterparties{
		"cp-1": {ID: "cp-1", Name: "Orchard Foods", Kind: masterdata.CounterpartyCustomer},
	}
	svc := NewService(repo, stock, counterparties, &memoryIdem{})
	return svc, repo, stock
}

func TestDeriveStatus(t *testing.T) {
	require.Equal(t, StatusUnpaid, DeriveStatus(0, 100))
	require.Equal(t, StatusPartial, DeriveStatus(60, 100))
	require.Equal(t, StatusPaid, DeriveStatus(100, 100))
	require.Equal(t, StatusPaid, DeriveStatus(150, 100))
	require.Equal(t, StatusPaid, DeriveStatus(50, 0))
}

func TestCreateTransactionSnapshotsPricesAndMovesStock(t *testing.T) {
	svc, _, stock := newTestService(map[string]float64{"p-1": 20})

	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems: []LineItem{
			{ProductID: "p-1", Quantity: 5, UnitPrice: 4},
		},
		InitialPayment: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 20.0, tx.TotalAmount)
	require.Equal(t, 10.0, tx.AmountPaid)
	require.Equal(t, 10.0, tx.Balance)
	require.Equal(t, StatusPartial, tx.PaymentStatus)
	require.Equal(t, "Orchard Foods", tx.CounterpartyName)
	require.Equal(t, 15.0, stock.levels["p-1"])
}

func TestCreateTransactionRejectsOversell(t *testing.T) {
	svc, repo, _ := newTestService(map[string]float64{"p-1": 2})

	_, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 5, UnitPrice: 4}},
	})
	require.ErrorIs(t, err, masterdata.ErrNegativeStock)
	require.Empty(t, repo.txs)
}

func TestRecordPaymentPartialThenPaid(t *testing.T) {
	svc, _, _ := newTestService(map[string]float64{"p-1": 100})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 10, UnitPrice: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusUnpaid, tx.PaymentStatus)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID,
		Amount:        60,
	})
	require.NoError(t, err)
	require.False(t, result.Overpaid)
	require.Equal(t, 40.0, result.Transaction.Balance)
	require.Equal(t, StatusPartial, result.Transaction.PaymentStatus)

	result, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID,
		Amount:        40,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Transaction.Balance)
	require.Equal(t, StatusPaid, result.Transaction.PaymentStatus)
}

func TestRecordPaymentBalanceDropsByExactlyAmount(t *testing.T) {
	svc, _, _ := newTestService(map[string]float64{"p-1": 100})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 3, UnitPrice: 33.33}},
	})
	require.NoError(t, err)

	before := tx.Balance
	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID,
		Amount:        25.5,
	})
	require.NoError(t, err)
	require.InDelta(t, before-25.5, result.Transaction.Balance, 1e-9)
}

func TestRecordPaymentOverpaymentNeedsConfirmation(t *testing.T) {
	svc, _, _ := newTestService(map[string]float64{"p-1": 100})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID,
		Amount:        150,
	})
	require.ErrorIs(t, err, ErrOverpaymentUnconfirmed)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID:      tx.ID,
		Amount:             150,
		ConfirmOverpayment: true,
	})
	require.NoError(t, err)
	require.True(t, result.Overpaid)
	require.Equal(t, -50.0, result.Transaction.Balance)
	require.Equal(t, StatusPaid, result.Transaction.PaymentStatus)
}

func TestRecordPaymentCheckWithoutDetailsFails(t *testing.T) {
	svc, _, _ := newTestService(map[string]float64{"p-1": 100})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID,
		Amount:        50,
		Method:        MethodCheck,
	})
	require.ErrorIs(t, err, ErrCheckDetailsRequired)

	// With details present the same payment goes through.
	result, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID,
		Amount:        50,
		Method:        MethodCheck,
		CheckDetails: &CheckDetails{
			Date:        time.Now(),
			BankName:    "First National",
			CheckNumber: "0042",
			Payee:       "Orchard Foods",
			Currency:    "USD",
		},
	})
	require.NoError(t, err)
	require.Equal(t, MethodCheck, result.Transaction.PaymentMethod)
	require.NotNil(t, result.Transaction.CheckDetails)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(nil)
	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{TransactionID: "x", Amount: 0})
	require.ErrorIs(t, err, ErrAmountNotPositive)
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{TransactionID: "x", Amount: -5})
	require.ErrorIs(t, err, ErrAmountNotPositive)
}

func TestRecordPaymentVersionConflict(t *testing.T) {
	svc, repo, _ := newTestService(map[string]float64{"p-1": 100})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	// A concurrent writer advanced the version after our read.
	repo.txs[tx.ID].Version = tx.Version + 1

	_, err = repo.UpdateTransactionPayment(context.Background(), tx.ID, tx.Version, PaymentUpdate{
		AmountPaid: 10, Balance: 90, PaymentStatus: StatusPartial,
		PaymentMethod: MethodCash, UpdatedAt: time.Now(),
	})
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestRecordPaymentDuplicateReference(t *testing.T) {
	svc, _, _ := newTestService(map[string]float64{"p-1": 100})
	tx, err := svc.CreateTransaction(context.Background(), CreateTransactionInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		LineItems:      []LineItem{{ProductID: "p-1", Quantity: 2, UnitPrice: 50}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID, Amount: 10, Reference: "ref-1",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{
		TransactionID: tx.ID, Amount: 10, Reference: "ref-1",
	})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
}

func TestCreatePaymentOnly(t *testing.T) {
	svc, _, _ := newTestService(nil)

	tx, err := svc.CreatePaymentOnly(context.Background(), PaymentOnlyInput{
		Kind:           KindSale,
		CounterpartyID: "cp-1",
		Amount:         50,
		PaymentType:    PaymentTypeAccount,
	})
	require.NoError(t, err)
	require.True(t, tx.IsPaymentOnly)
	require.Equal(t, 0.0, tx.TotalAmount)
	require.Equal(t, 50.0, tx.AmountPaid)
	require.Equal(t, -50.0, tx.Balance)
	require.Equal(t, StatusPaid, tx.PaymentStatus)
	require.Empty(t, tx.LineItems)
}

func TestCreatePaymentOnlyValidation(t *testing.T) {
	svc, _, _ := newTestService(nil)

	_, err := svc.CreatePaymentOnly(context.Background(), PaymentOnlyInput{
		Kind: KindSale, CounterpartyID: "cp-1", Amount: 0, PaymentType: PaymentTypeAdvance,
	})
	require.ErrorIs(t, err, ErrAmountNotPositive)

	_, err = svc.CreatePaymentOnly(context.Background(), PaymentOnlyInput{
		Kind: KindSale, CounterpartyID: "cp-1", Amount: 50, PaymentType: "refund",
	})
	require.Error(t, err)

	_, err = svc.CreatePaymentOnly(context.Background(), PaymentOnlyInput{
		Kind: KindSale, CounterpartyID: "cp-1", Amount: 50,
		PaymentType: PaymentTypeDeposit, Method: MethodCheck,
	})
	require.ErrorIs(t, err, ErrCheckDetailsRequired)
}

func TestPaymentOnlyAcceptsNoFurtherPayments(t *testing.T) {
	svc, _, _ := newTestService(nil)
	tx, err := svc.CreatePaymentOnly(context.Background(), PaymentOnlyInput{
		Kind: KindPurchase, CounterpartyID: "cp-1", Amount: 30, PaymentType: PaymentTypeDeposit,
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{TransactionID: tx.ID, Amount: 5})
	require.ErrorIs(t, err, ErrPaymentOnlyImmutable)
}

func TestSelectOutstanding(t *testing.T) {
	txs := []Transaction{
		{ID: "a", CounterpartyName: "Orchard Foods", Balance: 40},
		{ID: "b", CounterpartyName: "Harbor Traders", Balance: 0},
		{ID: "c", CounterpartyName: "Orchard Foods", Balance: -50, IsPaymentOnly: true},
		{ID: "d", CounterpartyName: "Mills & Sons", Balance: 12.5},
	}

	out := SelectOutstanding(txs, "")
	require.Len(t, out, 2)

	out = SelectOutstanding(txs, "orchard")
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].ID)

	out = SelectOutstanding(txs, "nobody")
	require.Empty(t, out)
}
