package services

import (
	"context"

	"github.com/fabtrack/fabledger/internal/core/domain"
	"github.com/fabtrack/fabledger/internal/dto"
)

// JobWorkSvcFacade manages job work orders and their guarded transitions.
// Transitions with inventory or ledger effects execute as coordinator units.
type JobWorkSvcFacade interface {
	CreateJobWork(ctx context.Context, req dto.CreateJobWorkRequest, actorID string) (*domain.JobWork, error)
	GetJobWork(ctx context.Context, jobWorkID string) (*domain.JobWork, error)
	ListJobWorks(ctx context.Context, limit, offset int) ([]domain.JobWork, error)

	// Transition moves the job work to target. Illegal transitions fail with
	// *apperrors.InvalidStateTransitionError and leave all state untouched.
	Transition(ctx context.Context, jobWorkID string, target domain.JobWorkState, req dto.JobWorkTransitionRequest, actorID string) (*domain.JobWork, error)
}

// GRNSvcFacade manages goods receipt notes.
type GRNSvcFacade interface {
	CreateGRN(ctx context.Context, req dto.CreateGRNRequest, actorID string) (*domain.GRN, error)
	GetGRN(ctx context.Context, grnID string) (*domain.GRN, error)
	ListGRNsByJobWork(ctx context.Context, jobWorkID string) ([]domain.GRN, error)

	Transition(ctx context.Context, grnID string, target domain.GRNState, req dto.GRNTransitionRequest, actorID string) (*domain.GRN, error)
}

// ProductionSvcFacade manages production orders.
type ProductionSvcFacade interface {
	CreateProductionOrder(ctx context.Context, req dto.CreateProductionOrderRequest, actorID string) (*domain.ProductionOrder, error)
	GetProductionOrder(ctx context.Context, orderID string) (*domain.ProductionOrder, error)
	ListProductionOrders(ctx context.Context, limit, offset int) ([]domain.ProductionOrder, error)

	Transition(ctx context.Context, orderID string, target domain.ProductionOrderState, req dto.ProductionTransitionRequest, actorID string) (*domain.ProductionOrder, error)
}
