package port

import (
	"context"

	"lending_dashboard/internal/domain/entity"
)

// PositionService produces a consistent portfolio snapshot for an account.
type PositionService interface {
	// Refresh recomputes the full snapshot for the account. An empty account
	// yields the zero-valued snapshot immediately. Individual query failures
	// degrade the affected fields to zero instead of propagating; the only
	// returned error is context cancellation.
	Refresh(ctx context.Context, account string) (entity.PortfolioSnapshot, error)
}
