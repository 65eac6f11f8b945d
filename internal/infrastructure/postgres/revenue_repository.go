package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
)

var _ ports.RevenueQuery = (*RevenueRepo)(nil)

// RevenueRepo consultas de solo lectura sobre los pedidos guardados en kv_store.
type RevenueRepo struct {
	pool *pgxpool.Pool
}

// NewRevenueRepository construye el adaptador.
func NewRevenueRepository(pool *pgxpool.Pool) *RevenueRepo {
	return &RevenueRepo{pool: pool}
}

// DeliveredRevenue suma el total de los pedidos Entregados creados en [from, to).
// Un valor que no es JSON válido cuenta como colección vacía (requiere PostgreSQL 16+).
func (r *RevenueRepo) DeliveredRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	const query = `
	WITH src AS MATERIALIZED (
	    SELECT value::jsonb AS doc
	    FROM kv_store
	    WHERE key = $1 AND pg_input_is_valid(value, 'jsonb')
	)
	SELECT COALESCE(SUM((o->>'total')::numeric), 0)
	FROM src,
	     jsonb_array_elements(CASE WHEN jsonb_typeof(src.doc) = 'array' THEN src.doc ELSE '[]'::jsonb END) AS o
	WHERE o->>'estado' = $2
	  AND (o->>'fecha')::timestamptz >= $3
	  AND (o->>'fecha')::timestamptz <  $4`

	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, query, localstore.KeyOrders, string(entity.OrderDelivered), from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("revenue.DeliveredRevenue: %w", err)
	}
	return total, nil
}
