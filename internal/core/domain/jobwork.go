package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobWorkState is the workflow state of a job work order.
type JobWorkState string

const (
	JobWorkCreated    JobWorkState = "CREATED"
	JobWorkAssigned   JobWorkState = "ASSIGNED"
	JobWorkInProgress JobWorkState = "IN_PROGRESS"
	JobWorkOnHold     JobWorkState = "ON_HOLD"
	JobWorkCompleted  JobWorkState = "COMPLETED"
	JobWorkCancelled  JobWorkState = "CANCELLED"
)

// jobWorkEdges is the guard table of legal transitions. CANCELLED is reachable
// from every non-terminal state.
var jobWorkEdges = map[JobWorkState][]JobWorkState{
	JobWorkCreated:    {JobWorkAssigned, JobWorkCancelled},
	JobWorkAssigned:   {JobWorkInProgress, JobWorkCancelled},
	JobWorkInProgress: {JobWorkOnHold, JobWorkCompleted, JobWorkCancelled},
	JobWorkOnHold:     {JobWorkInProgress, JobWorkCancelled},
}

// CanTransitionTo reports whether the edge from s to target exists.
// Guards that depend on entity data (assignment, GRN coverage) are enforced by
// the job work service on top of this table.
func (s JobWorkState) CanTransitionTo(target JobWorkState) bool {
	for _, next := range jobWorkEdges[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s JobWorkState) IsTerminal() bool {
	return len(jobWorkEdges[s]) == 0
}

// JobWork is an outsourced or in-house processing order: raw material is
// dispatched to WIP, processed, and received back via a GRN.
type JobWork struct {
	JobWorkID     string          `json:"jobWorkID"`
	Number        string          `json:"number"` // user-facing, unique
	ItemID        string          `json:"itemID"`
	State         JobWorkState    `json:"state"`
	DispatchedQty decimal.Decimal `json:"dispatchedQty"`
	ReceivedQty   decimal.Decimal `json:"receivedQty"` // accepted + rejected, via GRNs
	RatePerUnit   decimal.Decimal `json:"ratePerUnit"` // vendor processing charge
	// Exactly one of WorkerID / VendorPartnerID must be set for ASSIGNED.
	WorkerID        string     `json:"workerID,omitempty"`
	VendorPartnerID string     `json:"vendorPartnerID,omitempty"`
	DispatchedAt    *time.Time `json:"dispatchedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	AuditFields
}

// IsOutsourced reports whether the job work is processed by an external
// vendor rather than an in-house worker.
func (j *JobWork) IsOutsourced() bool {
	return j.VendorPartnerID != ""
}

// AssignmentValid reports whether exactly one of worker or vendor is set.
func (j *JobWork) AssignmentValid() bool {
	return (j.WorkerID != "") != (j.VendorPartnerID != "")
}

// ReceiptCoversDispatch reports whether GRN receipts cover the dispatched
// quantity, the precondition for COMPLETED.
func (j *JobWork) ReceiptCoversDispatch() bool {
	return j.ReceivedQty.GreaterThanOrEqual(j.DispatchedQty)
}
