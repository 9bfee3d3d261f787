package entity

// OperationKind names one of the four protocol actions.
type OperationKind string

const (
	OpSupply   OperationKind = "supply"
	OpBorrow   OperationKind = "borrow"
	OpWithdraw OperationKind = "withdraw"
	OpRepay    OperationKind = "repay"
)

// ParseOperationKind validates a client-supplied operation name.
func ParseOperationKind(s string) (OperationKind, bool) {
	switch OperationKind(s) {
	case OpSupply, OpBorrow, OpWithdraw, OpRepay:
		return OperationKind(s), true
	}
	return "", false
}

// TxStatus is the state-machine position of a single operation invocation.
// CheckingBalance and Approving only occur for the operations that need
// them; Succeeded and Failed are terminal.
type TxStatus string

const (
	StatusIdle            TxStatus = "idle"
	StatusPreparing       TxStatus = "preparing"
	StatusCheckingBalance TxStatus = "checking_balance"
	StatusApproving       TxStatus = "approving"
	StatusSubmitting      TxStatus = "submitting"
	StatusSucceeded       TxStatus = "succeeded"
	StatusFailed          TxStatus = "failed"
)

// TransactionState is the observable progress of one operation invocation.
// Invariant at terminal: exactly one of TxHash or Err is set, and IsLoading
// is false. States are scoped to the invocation and never persisted.
type TransactionState struct {
	Operation OperationKind   `json:"operation"`
	Status    TxStatus        `json:"status"`
	StepLabel string          `json:"stepLabel,omitempty"`
	TxHash    string          `json:"txHash,omitempty"`
	Err       *OperationError `json:"error,omitempty"`
	IsLoading bool            `json:"isLoading"`
}

// Terminal reports whether the state machine has reached an end state.
func (s TransactionState) Terminal() bool {
	return s.Status == StatusSucceeded || s.Status == StatusFailed
}

// OperationRequest carries the caller-supplied inputs for one operation.
// Amount is a decimal string; it is parsed against the asset's precision
// before any network call.
type OperationRequest struct {
	Operation OperationKind `json:"operation"`
	Account   string        `json:"account"`
	Asset     string        `json:"asset"`
	Amount    string        `json:"amount"`
}
