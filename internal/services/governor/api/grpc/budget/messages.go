package budget

// Budget is the wire form of the bounded value.
type Budget struct {
	Current int64 `json:"current"`
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
}

// InitializeRequest sets the owner and the budget bounds. The owner must
// match the caller proven by the request proof.
type InitializeRequest struct {
	Owner   string `json:"owner"`
	Initial int64  `json:"initial"`
	Min     int64  `json:"min"`
	Max     int64  `json:"max"`
}

// InitializeResponse echoes the stored budget.
type InitializeResponse struct {
	Budget Budget `json:"budget"`
}

// AddOperatorRequest names the operator to append.
type AddOperatorRequest struct {
	Operator string `json:"operator"`
}

// AddOperatorResponse is empty.
type AddOperatorResponse struct{}

// RemoveOperatorRequest names the operator to drop.
type RemoveOperatorRequest struct {
	Operator string `json:"operator"`
}

// RemoveOperatorResponse is empty.
type RemoveOperatorResponse struct{}

// AdjustBudgetRequest carries a non-negative amount for increase or decrease.
type AdjustBudgetRequest struct {
	Amount int64 `json:"amount"`
}

// AdjustBudgetResponse carries the budget value after the change.
type AdjustBudgetResponse struct {
	Current int64 `json:"current"`
}

// GetBudgetRequest is empty.
type GetBudgetRequest struct{}

// GetBudgetResponse carries the budget.
type GetBudgetResponse struct {
	Budget Budget `json:"budget"`
}

// GetOperatorsRequest is empty.
type GetOperatorsRequest struct{}

// GetOperatorsResponse lists operators in insertion order.
type GetOperatorsResponse struct {
	Operators []string `json:"operators"`
}

// GetOwnerRequest is empty.
type GetOwnerRequest struct{}

// GetOwnerResponse carries the owner address.
type GetOwnerResponse struct {
	Owner string `json:"owner"`
}

// IsOperatorRequest names the address to check.
type IsOperatorRequest struct {
	Address string `json:"address"`
}

// IsOperatorResponse reports roster membership.
type IsOperatorResponse struct {
	IsOperator bool `json:"is_operator"`
}
