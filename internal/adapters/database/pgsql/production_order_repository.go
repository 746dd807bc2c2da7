package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabtrack/fabledger/internal/apperrors"
	"github.com/fabtrack/fabledger/internal/core/domain"
	portsrepo "github.com/fabtrack/fabledger/internal/core/ports/repositories"
)

type productionOrderRepository struct {
	pool *pgxpool.Pool
}

// NewProductionOrderRepository creates a new repository for production orders.
func NewProductionOrderRepository(pool *pgxpool.Pool) portsrepo.ProductionOrderRepository {
	return &productionOrderRepository{pool: pool}
}

var _ portsrepo.ProductionOrderRepository = (*productionOrderRepository)(nil)

const productionOrderColumns = `order_id, number, item_id, bom_id, state, planned_qty, produced_qty, scrapped_qty, planned_cost, labor_cost, requirements, reserved_at, completed_at, created_at, created_by, last_updated_at, last_updated_by`

func scanProductionOrder(row pgx.Row) (*domain.ProductionOrder, error) {
	var p domain.ProductionOrder
	var requirements []byte
	err := row.Scan(
		&p.OrderID,
		&p.Number,
		&p.ItemID,
		&p.BOMID,
		&p.State,
		&p.PlannedQty,
		&p.ProducedQty,
		&p.ScrappedQty,
		&p.PlannedCost,
		&p.LaborCost,
		&requirements,
		&p.ReservedAt,
		&p.CompletedAt,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &p.Requirements); err != nil {
			return nil, fmt.Errorf("failed to decode requirements for order %s: %w", p.OrderID, err)
		}
	}
	return &p, nil
}

func marshalRequirements(order domain.ProductionOrder) ([]byte, error) {
	if order.Requirements == nil {
		return nil, nil
	}
	data, err := json.Marshal(order.Requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to encode requirements for order %s: %w", order.OrderID, err)
	}
	return data, nil
}

func (r *productionOrderRepository) SaveProductionOrder(ctx context.Context, order domain.ProductionOrder) error {
	requirements, err := marshalRequirements(order)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO production_orders (` + productionOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = r.pool.Exec(ctx, query,
		order.OrderID,
		order.Number,
		order.ItemID,
		order.BOMID,
		order.State,
		order.PlannedQty,
		order.ProducedQty,
		order.ScrappedQty,
		order.PlannedCost,
		order.LaborCost,
		requirements,
		order.ReservedAt,
		order.CompletedAt,
		order.CreatedAt,
		order.CreatedBy,
		order.LastUpdatedAt,
		order.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: production order number %s", apperrors.ErrDuplicate, order.Number)
		}
		return fmt.Errorf("failed to save production order %s: %w", order.OrderID, err)
	}
	return nil
}

func (r *productionOrderRepository) FindProductionOrderByID(ctx context.Context, orderID string) (*domain.ProductionOrder, error) {
	query := `SELECT ` + productionOrderColumns + ` FROM production_orders WHERE order_id = $1;`
	p, err := scanProductionOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: production order %s", apperrors.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to find production order %s: %w", orderID, err)
	}
	return p, nil
}

func (r *productionOrderRepository) FindProductionOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.ProductionOrder, error) {
	query := `SELECT ` + productionOrderColumns + ` FROM production_orders WHERE order_id = $1 FOR UPDATE;`
	p, err := scanProductionOrder(tx.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: production order %s", apperrors.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to lock production order %s: %w", orderID, err)
	}
	return p, nil
}

func (r *productionOrderRepository) UpdateProductionOrder(ctx context.Context, tx pgx.Tx, order domain.ProductionOrder) error {
	requirements, err := marshalRequirements(order)
	if err != nil {
		return err
	}
	query := `
		UPDATE production_orders
		SET state = $2, produced_qty = $3, scrapped_qty = $4, planned_cost = $5, labor_cost = $6, requirements = $7, reserved_at = $8, completed_at = $9, last_updated_at = $10, last_updated_by = $11
		WHERE order_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		order.OrderID,
		order.State,
		order.ProducedQty,
		order.ScrappedQty,
		order.PlannedCost,
		order.LaborCost,
		requirements,
		order.ReservedAt,
		order.CompletedAt,
		order.LastUpdatedAt,
		order.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update production order %s: %w", order.OrderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: production order %s", apperrors.ErrNotFound, order.OrderID)
	}
	return nil
}

func (r *productionOrderRepository) ListProductionOrders(ctx context.Context, limit int, offset int) ([]domain.ProductionOrder, error) {
	query := `
		SELECT ` + productionOrderColumns + `
		FROM production_orders
		ORDER BY created_at DESC, order_id DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list production orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.ProductionOrder{}
	for rows.Next() {
		p, err := scanProductionOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan production order row: %w", err)
		}
		orders = append(orders, *p)
	}
	return orders, rows.Err()
}
