package ports

import (
	"context"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

// OperatorRepository persists staff accounts for the ops HTTP surface.
type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
	Create(ctx context.Context, op *domain.Operator) (*domain.Operator, error)
}
