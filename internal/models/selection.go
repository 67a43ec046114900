package models

// Selection statuses.
const (
	SelectionPendingDocuments = "pending_documents"
	SelectionSubmitted        = "submitted"
)

// PlanSelection records a customer's choice of plan from a recommendation list.
type PlanSelection struct {
	ID         string  `json:"id" db:"id"`
	CustomerID string  `json:"customerId" db:"customer_id"`
	PlanID     string  `json:"planId" db:"plan_id"`
	AgentID    string  `json:"agentId,omitempty" db:"agent_id"`
	Premium    float64 `json:"premium" db:"premium"`
	Score      int     `json:"score" db:"score"`
	Status     string  `json:"status" db:"status"`
	CreatedAt  string  `json:"createdAt" db:"created_at"`
	UpdatedAt  string  `json:"updatedAt" db:"updated_at"`
}
