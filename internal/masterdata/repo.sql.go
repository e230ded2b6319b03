package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/db"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateProduct inserts a product row.
func (r *Repository) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (id, name, price, stock, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`, p.ID, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProduct loads one product row.
func (r *Repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: product %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns all products.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price, stock, created_at, updated_at FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct rewrites name, price and updated_at.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET name=$2, price=$3, updated_at=$4 WHERE id=$1`,
		p.ID, p.Name, p.Price, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("masterdata: product %s: %w", p.ID, shared.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product row.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("masterdata: product %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ApplyStockDeltas moves stock inside one transaction, guarding the zero floor.
func (r *Repository) ApplyStockDeltas(ctx context.Context, deltas []StockDelta) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, d := range deltas {
			var stock float64
			err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, d.ProductID).Scan(&stock)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("masterdata: product %s: %w", d.ProductID, shared.ErrNotFound)
			}
			if err != nil {
				return err
			}
			if stock+d.Delta < 0 {
				return ErrNegativeStock
			}
			if _, err := tx.Exec(ctx, `UPDATE products SET stock=stock+$2, updated_at=now() WHERE id=$1`, d.ProductID, d.Delta); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateCounterparty inserts a counterparty row.
func (r *Repository) CreateCounterparty(ctx context.Context, c Counterparty) (*Counterparty, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO counterparties (id, name, kind, phone, created_at)
VALUES ($1, $2, $3, $4, $5)`, c.ID, c.Name, c.Kind, c.Phone, c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCounterparty loads one counterparty row.
func (r *Repository) GetCounterparty(ctx context.Context, id string) (*Counterparty, error) {
	var c Counterparty
	err := r.pool.QueryRow(ctx, `SELECT id, name, kind, phone, created_at FROM counterparties WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Kind, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: counterparty %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCounterparties returns counterparties, optionally filtered by kind.
func (r *Repository) ListCounterparties(ctx context.Context, kind CounterpartyKind) ([]Counterparty, error) {
	query := `SELECT id, name, kind, phone, created_at FROM counterparties ORDER BY name`
	args := []any{}
	if kind != "" {
		query = `SELECT id, name, kind, phone, created_at FROM counterparties WHERE kind=$1 ORDER BY name`
		args = append(args, kind)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Counterparty
	for rows.Next() {
		var c Counterparty
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCounterparty removes a counterparty row.
func (r *Repository) DeleteCounterparty(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM counterparties WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("masterdata: counterparty %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// FindBankByName looks a bank up by its display name.
func (r *Repository) FindBankByName(ctx context.Context, name string) (*Bank, error) {
	var b Bank
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM banks WHERE lower(name)=lower($1)`, name).Scan(&b.ID, &b.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: bank %q: %w", name, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBank inserts a bank reference row.
func (r *Repository) CreateBank(ctx context.Context, b Bank) (*Bank, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO banks (id, name) VALUES ($1, $2)`, b.ID, b.Name)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindCurrencyByCode looks a currency up by code.
func (r *Repository) FindCurrencyByCode(ctx context.Context, code string) (*Currency, error) {
	var c Currency
	err := r.pool.QueryRow(ctx, `SELECT id, code FROM currencies WHERE code=$1`, code).Scan(&c.ID, &c.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("masterdata: currency %q: %w", code, shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCurrency inserts a currency reference row.
func (r *Repository) CreateCurrency(ctx context.Context, c Currency) (*Currency, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO currencies (id, code) VALUES ($1, $2)`, c.ID, c.Code)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
