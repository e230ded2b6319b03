package valuation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// Repository reads the collections the engine folds over. Transaction and
// product reads delegate to the owning modules' repositories so the row
// mapping lives in one place; cash entries are owned here.
type Repository struct {
	pool         *pgxpool.Pool
	transactions *ledger.Repository
	products     *masterdata.Repository
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool:         pool,
		transactions: ledger.NewRepository(pool),
		products:     masterdata.NewRepository(pool),
	}
}

// ListTransactions returns transactions of a kind.
func (r *Repository) ListTransactions(ctx context.Context, kind ledger.TransactionKind) ([]ledger.Transaction, error) {
	return r.transactions.ListTransactions(ctx, kind)
}

// ListProducts returns the full product registry.
func (r *Repository) ListProducts(ctx context.Context) ([]masterdata.Product, error) {
	return r.products.ListProducts(ctx)
}

// ListCashEntries returns manual entries of one kind, or all when empty.
func (r *Repository) ListCashEntries(ctx context.Context, kind EntryKind) ([]CashEntry, error) {
	query := `SELECT id, kind, date, amount, description, created_at FROM cash_entries ORDER BY date`
	args := []any{}
	if kind != "" {
		query = `SELECT id, kind, date, amount, description, created_at FROM cash_entries WHERE kind=$1 ORDER BY date`
		args = append(args, kind)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []CashEntry
	for rows.Next() {
		var e CashEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Date, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateCashEntry inserts a manual entry row.
func (r *Repository) CreateCashEntry(ctx context.Context, entry CashEntry) (*CashEntry, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO cash_entries (id, kind, date, amount, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`, entry.ID, entry.Kind, entry.Date, entry.Amount, entry.Description, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteCashEntry removes a manual entry row.
func (r *Repository) DeleteCashEntry(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cash_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("valuation: cash entry %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
