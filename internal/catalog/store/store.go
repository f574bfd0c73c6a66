package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectProductColumns = `
	id, name, category, pricing_type, price::text, active, description,
	stock_quantity, low_stock_threshold, created_at, updated_at
`

func scanProduct(s scanner) (*catalog.Product, error) {
	var (
		p                       catalog.Product
		category, pricing, price string
		stock, threshold         sql.NullInt64
	)

	if err := s.Scan(
		&p.ID, &p.Name, &category, &pricing, &price, &p.Active, &p.Description,
		&stock, &threshold, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", price, err)
	}

	p.Price = d
	p.Category = catalog.Category(category)
	p.PricingType = catalog.PricingType(pricing)

	if stock.Valid {
		p.StockQuantity = new(int(stock.Int64))
	}

	if threshold.Valid {
		p.LowStockThreshold = new(int(threshold.Int64))
	}

	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	query := `
		INSERT INTO products (name, category, pricing_type, price, active, description, stock_quantity, low_stock_threshold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.Name, p.Category, p.PricingType, p.Price.String(), p.Active, p.Description,
		p.StockQuantity, p.LowStockThreshold,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}

	return nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	query := `
		UPDATE products
		SET name = $1, category = $2, pricing_type = $3, price = $4, active = $5, description = $6,
			stock_quantity = $7, low_stock_threshold = $8, updated_at = NOW()
		WHERE id = $9
	`

	res, err := s.db.ExecContext(ctx, query,
		p.Name, p.Category, p.PricingType, p.Price.String(), p.Active, p.Description,
		p.StockQuantity, p.LowStockThreshold, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrNotFound
	}

	return nil
}

func (s *Store) ListProducts(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIdx)

		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.ActiveOnly {
		query += " AND active"
	}

	if filter.Query != "" {
		query += fmt.Sprintf(" AND name ILIKE '%%' || $%d || '%%'", argIdx)

		args = append(args, filter.Query)
		argIdx++
	}

	query += " ORDER BY category, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}
