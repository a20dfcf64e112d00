// internal/workers/delivery/redeliver-events/models.go
package redeliverevents

// SweepResult summarizes one pass over the pending list.
type SweepResult struct {
	Claimed      int `json:"claimed"`
	Delivered    int `json:"delivered"`
	Requeued     int `json:"requeued"`
	DeadLettered int `json:"deadLettered"`
}

// Redelivery outcomes.
const (
	OutcomeDelivered    = "delivered"
	OutcomeRequeued     = "requeued"
	OutcomeDeadLettered = "dead_lettered"
	OutcomeError        = "error"
)
