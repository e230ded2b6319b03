package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// Repository provides PostgreSQL backed persistence for transactions.
// Line items and check details are stored as JSONB documents; they are
// immutable after creation so no relational access is needed.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const txColumns = `id, kind, date, counterparty_id, counterparty_name, line_items, total_amount,
amount_paid, balance, payment_status, payment_method, payment_type, is_payment_only,
check_details, version, created_at, updated_at`

// CreateTransaction inserts a transaction row.
func (r *Repository) CreateTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	items, err := json.Marshal(tx.LineItems)
	if err != nil {
		return nil, err
	}
	details, err := marshalCheckDetails(tx.CheckDetails)
	if err != nil {
		return nil, err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO transactions (`+txColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		tx.ID, tx.Kind, tx.Date, tx.CounterpartyID, tx.CounterpartyName, items, tx.TotalAmount,
		tx.AmountPaid, tx.Balance, tx.PaymentStatus, tx.PaymentMethod, nullable(string(tx.PaymentType)), tx.IsPaymentOnly,
		details, tx.Version, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransaction loads one transaction row.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ledger: transaction %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns transactions of a kind, or all when kind is empty.
func (r *Repository) ListTransactions(ctx context.Context, kind TransactionKind) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions ORDER BY date, created_at`
	args := []any{}
	if kind != "" {
		query = `SELECT ` + txColumns + ` FROM transactions WHERE kind=$1 ORDER BY date, created_at`
		args = append(args, kind)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTransactionPayment applies the payment fields with a version check.
func (r *Repository) UpdateTransactionPayment(ctx context.Context, id string, version int64, update PaymentUpdate) (*Transaction, error) {
	details, err := marshalCheckDetails(update.CheckDetails)
	if err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE transactions
SET amount_paid=$3, balance=$4, payment_status=$5, payment_method=$6, check_details=$7,
    version=version+1, updated_at=$8
WHERE id=$1 AND version=$2`,
		id, version, update.AmountPaid, update.Balance, update.PaymentStatus, update.PaymentMethod,
		details, update.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a vanished row from a stale version.
		if _, err := r.GetTransaction(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return r.GetTransaction(ctx, id)
}

// DeleteTransaction removes a transaction row.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: transaction %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var tx Transaction
	var items []byte
	var details []byte
	var paymentType *string
	if err := row.Scan(&tx.ID, &tx.Kind, &tx.Date, &tx.CounterpartyID, &tx.CounterpartyName,
		&items, &tx.TotalAmount, &tx.AmountPaid, &tx.Balance, &tx.PaymentStatus,
		&tx.PaymentMethod, &paymentType, &tx.IsPaymentOnly, &details, &tx.Version,
		&tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &tx.LineItems); err != nil {
			return nil, err
		}
	}
	if len(details) > 0 {
		var cd CheckDetails
		if err := json.Unmarshal(details, &cd); err != nil {
			return nil, err
		}
		tx.CheckDetails = &cd
	}
	if paymentType != nil {
		tx.PaymentType = PaymentType(*paymentType)
	}
	return &tx, nil
}

func marshalCheckDetails(cd *CheckDetails) ([]byte, error) {
	if cd == nil {
		return nil, nil
	}
	return json.Marshal(cd)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
