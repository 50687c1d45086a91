package portsout

import (
	"context"

	apperrors "paycore/internal/shared_kernel/errors"
)

type PersistenceBootstrapGateway interface {
	CheckReadiness(ctx context.Context) *apperrors.AppError
	ApplyMigrations(ctx context.Context) *apperrors.AppError
}
