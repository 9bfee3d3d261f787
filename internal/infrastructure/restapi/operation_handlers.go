package restapi

import (
	"net/http"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// OperationRequestBody is the JSON body for POST /api/v1/operations/:op.
type OperationRequestBody struct {
	Account string `json:"account" binding:"required"`
	Asset   string `json:"asset" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// APIOperationResponse carries the terminal state plus the step trace the
// orchestrator emitted along the way.
type APIOperationResponse struct {
	Data struct {
		FinalState entity.TransactionState   `json:"finalState"`
		Steps      []entity.TransactionState `json:"steps"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// OperationHandler handles HTTP requests that execute protocol operations.
type OperationHandler struct {
	transactionService port.TransactionService
	logger             port.Logger
}

// NewOperationHandler creates a new instance of OperationHandler.
func NewOperationHandler(ts port.TransactionService, l port.Logger) *OperationHandler {
	return &OperationHandler{transactionService: ts, logger: l}
}

// ExecuteOperationHandler serves POST /api/v1/operations/:op.
func (h *OperationHandler) ExecuteOperationHandler(c *gin.Context) {
	op, ok := entity.ParseOperationKind(c.Param("op"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status_message": "Unknown operation: " + c.Param("op")})
		return
	}

	var body OperationRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status_message": "Invalid request body: " + err.Error()})
		return
	}

	var steps []entity.TransactionState
	finalState := h.transactionService.Execute(c.Request.Context(), entity.OperationRequest{
		Operation: op,
		Account:   body.Account,
		Asset:     body.Asset,
		Amount:    body.Amount,
	}, func(st entity.TransactionState) {
		steps = append(steps, st)
	})

	response := APIOperationResponse{}
	response.Data.FinalState = finalState
	response.Data.Steps = steps

	httpStatus := http.StatusOK
	if finalState.Err != nil {
		response.StatusMessage = "Operation failed: " + finalState.Err.Message
		switch finalState.Err.Code {
		case entity.ErrWalletNotConnected, entity.ErrUnsupportedAsset, entity.ErrAssetNotBorrowable, entity.ErrInvalidAmount:
			httpStatus = http.StatusBadRequest
		case entity.ErrInsufficientWalletBalance, entity.ErrInsufficientSuppliedBalance:
			httpStatus = http.StatusUnprocessableEntity
		default:
			httpStatus = http.StatusBadGateway
		}
	} else {
		response.StatusMessage = "Operation submitted successfully."
	}
	c.JSON(httpStatus, response)
}
