package restapi

import (
	"net/http"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIPositionResponse defines the response envelope for the positions endpoint.
type APIPositionResponse struct {
	Data struct {
		Snapshot entity.PortfolioSnapshot `json:"snapshot"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// PositionHandler handles HTTP requests for portfolio snapshots.
type PositionHandler struct {
	positionService port.PositionService
	logger          port.Logger
}

// NewPositionHandler creates a new instance of PositionHandler.
func NewPositionHandler(ps port.PositionService, l port.Logger) *PositionHandler {
	return &PositionHandler{positionService: ps, logger: l}
}

// GetPositionHandler serves GET /api/v1/positions/:address.
func (h *PositionHandler) GetPositionHandler(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.Param("address")

	snapshot, err := h.positionService.Refresh(ctx, address)
	if err != nil {
		// Refresh only errors on context cancellation; query failures degrade
		// fields to zero inside the service.
		h.logger.Warn("Position refresh aborted", "address", address, "error", err)
		c.JSON(http.StatusRequestTimeout, gin.H{"status_message": "Position refresh aborted: " + err.Error()})
		return
	}

	response := APIPositionResponse{StatusMessage: "Position retrieved successfully."}
	response.Data.Snapshot = snapshot
	c.JSON(http.StatusOK, response)
}
