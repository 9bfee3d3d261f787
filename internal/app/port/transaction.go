package port

import (
	"context"

	"lending_dashboard/internal/domain/entity"
)

// StateListener observes intermediate transaction states. Emissions stop
// once the invocation's context is cancelled.
type StateListener func(entity.TransactionState)

// TransactionService executes one protocol operation per call, surfacing
// progress through the listener and exactly one terminal outcome in the
// returned state. Failed invocations are never retried in place; callers
// construct a new invocation.
type TransactionService interface {
	Execute(ctx context.Context, req entity.OperationRequest, listener StateListener) entity.TransactionState
}
