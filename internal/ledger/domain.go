package ledger

import (
	"errors"
	"strings"
	"time"
)

// TransactionKind separates sales from purchases. Both share one shape;
// the kind only flips which direction money and stock move.
type TransactionKind string

const (
	// KindSale is a sale to a customer.
	KindSale TransactionKind = "sale"
	// KindPurchase is a purchase from a vendor.
	KindPurchase TransactionKind = "purchase"
)

// PaymentStatus is derived from amount paid versus total, never set directly.
type PaymentStatus string

const (
	// StatusUnpaid means nothing has been paid yet.
	StatusUnpaid PaymentStatus = "unpaid"
	// StatusPartial means some but not all of the total has been paid.
	StatusPartial PaymentStatus = "partial"
	// StatusPaid means the balance is settled (or negative, i.e. credit).
	StatusPaid PaymentStatus = "paid"
)

// PaymentMethod enumerates supported instruments.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentType tags payment-only records. Purely descriptive; it never
// changes the balance math.
type PaymentType string

const (
	PaymentTypeAccount PaymentType = "account_payment"
	PaymentTypeAdvance PaymentType = "advance_payment"
	PaymentTypeDeposit PaymentType = "deposit"
)

// LineItem is one product position. Unit price is snapshotted at
// transaction time and never re-derived from the current product price.
type LineItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Total returns quantity times the snapshotted unit price.
func (l LineItem) Total() float64 {
	return l.Quantity * l.UnitPrice
}

// CheckDetails captures the deferred check instrument data.
type CheckDetails struct {
	Date        time.Time `json:"date"`
	BankName    string    `json:"bankName"`
	CheckNumber string    `json:"checkNumber"`
	Payee       string    `json:"payee"`
	Currency    string    `json:"currency"`
}

// Transaction is a sale or purchase, or a payment-only settlement record.
// Line items and TotalAmount are immutable after creation; only the
// payment fields move, via RecordPayment.
type Transaction struct {
	ID               string          `json:"id"`
	Kind             TransactionKind `json:"kind"`
	Date             time.Time       `json:"date"`
	CounterpartyID   string          `json:"counterpartyId"`
	CounterpartyName string          `json:"counterpartyName"`
	LineItems        []LineItem      `json:"lineItems,omitempty"`
	TotalAmount      float64         `json:"totalAmount"`
	AmountPaid       float64         `json:"amountPaid"`
	Balance          float64         `json:"balance"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	PaymentType      PaymentType     `json:"paymentType,omitempty"`
	IsPaymentOnly    bool            `json:"isPaymentOnly"`
	CheckDetails     *CheckDetails   `json:"checkDetails,omitempty"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// DeriveStatus computes the payment status for a paid/total pair.
// Settled or overpaid balances report paid; any positive payment short of
// the total is partial; untouched transactions are unpaid.
func DeriveStatus(amountPaid, totalAmount float64) PaymentStatus {
	switch {
	case totalAmount-amountPaid <= 0:
		return StatusPaid
	case amountPaid > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// SelectOutstanding filters to transactions still owing money
// (balance > 0), which excludes settled records and payment-only credits.
// A non-empty search narrows by case-insensitive counterparty name.
func SelectOutstanding(txs []Transaction, search string) []Transaction {
	search = strings.ToLower(strings.TrimSpace(search))
	var out []Transaction
	for _, tx := range txs {
		if tx.Balance <= 0 {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tx.CounterpartyName), search) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

var (
	// ErrAmountNotPositive indicates a zero or negative payment amount.
	ErrAmountNotPositive = errors.New("ledger: amount must be positive")
	// ErrCheckDetailsRequired indicates a check payment without details.
	ErrCheckDetailsRequired = errors.New("ledger: check payments require check details")
	// ErrOverpaymentUnconfirmed indicates an overpayment the caller has not confirmed.
	ErrOverpaymentUnconfirmed = errors.New("ledger: overpayment requires confirmation")
	// ErrVersionConflict indicates the transaction changed between read and write.
	ErrVersionConflict = errors.New("ledger: transaction was modified concurrently")
	// ErrNoLineItems indicates a sale or purchase with an empty cart.
	ErrNoLineItems = errors.New("ledger: at least one line item required")
	// ErrPaymentOnlyImmutable indicates an additional payment against a payment-only record.
	ErrPaymentOnlyImmutable = errors.New("ledger: payment-only transactions accept no further payments")
)
