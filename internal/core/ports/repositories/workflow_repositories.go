package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fabtrack/fabledger/internal/core/domain"
)

// JobWorkRepository defines persistence operations for job work orders.
// Updates run inside a coordinator transaction with the row locked.
type JobWorkRepository interface {
	SaveJobWork(ctx context.Context, jobWork domain.JobWork) error
	FindJobWorkByID(ctx context.Context, jobWorkID string) (*domain.JobWork, error)
	FindJobWorkForUpdate(ctx context.Context, tx pgx.Tx, jobWorkID string) (*domain.JobWork, error)
	UpdateJobWork(ctx context.Context, tx pgx.Tx, jobWork domain.JobWork) error
	ListJobWorks(ctx context.Context, limit int, offset int) ([]domain.JobWork, error)
}

// GRNRepository defines persistence operations for goods receipt notes.
type GRNRepository interface {
	SaveGRN(ctx context.Context, grn domain.GRN) error
	FindGRNByID(ctx context.Context, grnID string) (*domain.GRN, error)
	FindGRNForUpdate(ctx context.Context, tx pgx.Tx, grnID string) (*domain.GRN, error)
	UpdateGRN(ctx context.Context, tx pgx.Tx, grn domain.GRN) error
	ListGRNsByJobWorkID(ctx context.Context, jobWorkID string) ([]domain.GRN, error)
}

// ProductionOrderRepository defines persistence operations for production orders.
type ProductionOrderRepository interface {
	SaveProductionOrder(ctx context.Context, order domain.ProductionOrder) error
	FindProductionOrderByID(ctx context.Context, orderID string) (*domain.ProductionOrder, error)
	FindProductionOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.ProductionOrder, error)
	UpdateProductionOrder(ctx context.Context, tx pgx.Tx, order domain.ProductionOrder) error
	ListProductionOrders(ctx context.Context, limit int, offset int) ([]domain.ProductionOrder, error)
}
