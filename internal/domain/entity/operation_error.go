package entity

import "fmt"

// ErrorCode classifies terminal operation failures.
type ErrorCode string

const (
	ErrWalletNotConnected          ErrorCode = "WalletNotConnected"
	ErrUnsupportedAsset            ErrorCode = "UnsupportedAsset"
	ErrAssetNotBorrowable          ErrorCode = "AssetNotBorrowable"
	ErrInvalidAmount               ErrorCode = "InvalidAmount"
	ErrInsufficientWalletBalance   ErrorCode = "InsufficientWalletBalance"
	ErrInsufficientSuppliedBalance ErrorCode = "InsufficientSuppliedBalance"
	ErrApprovalFailed              ErrorCode = "ApprovalFailed"
	ErrTransactionFailed           ErrorCode = "TransactionFailed"
	ErrQueryFailed                 ErrorCode = "QueryFailed"
)

// OperationError is the typed, user-displayable failure attached to a
// terminal Failed state. Message is suitable for direct display.
type OperationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewOperationError builds an OperationError with a formatted message.
func NewOperationError(code ErrorCode, format string, args ...any) *OperationError {
	return &OperationError{Code: code, Message: fmt.Sprintf(format, args...)}
}
