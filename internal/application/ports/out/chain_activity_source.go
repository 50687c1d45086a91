package portsout

import (
	"context"

	"paycore/internal/application/dto"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

// ChainActivitySource is the uniform capability every supported chain
// implements: report transfers to one of our addresses since a
// watermark cursor. The cursor format is opaque to callers and owned
// by the source (block height, signature, explorer position).
type ChainActivitySource interface {
	Chain() valueobjects.Chain
	FetchSince(ctx context.Context, address string, cursor string) (dto.ChainActivityPage, *apperrors.AppError)
}
