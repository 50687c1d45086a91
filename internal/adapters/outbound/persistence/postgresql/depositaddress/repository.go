package depositaddress

import (
	"context"
	"database/sql"
	"log"
	"time"

	"paycore/internal/adapters/outbound/persistence/postgresql/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type Repository struct {
	db      *sql.DB
	logger  *log.Logger
	nowFunc func() time.Time
}

var _ portsout.DepositAddressRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	return &Repository{db: db, logger: logger, nowFunc: time.Now}
}

// AllocateOrGet hands out one address per (user, chain), forever. The
// chain's allocation row is locked while the next index is claimed and
// the address derived, so two racing requests cannot burn the same
// index or hand the same user two addresses.
func (r *Repository) AllocateOrGet(ctx context.Context, userID string, chain valueobjects.Chain, derive dto.DeriveDepositAddressFunc) (dto.DepositAddress, bool, *apperrors.AppError) {
	if derive == nil {
		return dto.DepositAddress{}, false, apperrors.NewInternal(
			"address_deriver_missing",
			"address deriver is required",
			nil,
		)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return dto.DepositAddress{}, false, apperrors.NewInternal(
			"deposit_address_tx_begin_failed",
			"failed to start allocation transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	existing, found, appErr := r.findExisting(ctx, tx, userID, chain)
	if appErr != nil {
		return dto.DepositAddress{}, false, appErr
	}
	if found {
		if commitErr := tx.Commit(); commitErr != nil {
			return dto.DepositAddress{}, false, apperrors.NewInternal(
				"deposit_address_tx_commit_failed",
				"failed to commit allocation transaction",
				map[string]any{"error": commitErr.Error()},
			)
		}
		committed = true
		return existing, true, nil
	}

	var accountIndex int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO chain_accounts (chain, next_index)
		VALUES ($1, 1)
		ON CONFLICT (chain) DO UPDATE SET next_index = chain_accounts.next_index + 1
		RETURNING next_index - 1
	`, chain.String()).Scan(&accountIndex)
	if err != nil {
		return dto.DepositAddress{}, false, apperrors.NewInternal(
			"account_index_claim_failed",
			"failed to claim the next account index",
			map[string]any{"error": err.Error(), "chain": chain.String()},
		)
	}

	address, appErr := derive(ctx, chain, accountIndex)
	if appErr != nil {
		return dto.DepositAddress{}, false, appErr
	}

	createdAt := r.nowFunc().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deposit_addresses (user_id, chain, address, account_index, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, chain.String(), address, accountIndex, createdAt); err != nil {
		if shared.IsUniqueViolation(err) {
			// A concurrent request for the same (user, chain) won the
			// insert after our existence check. Return its row; the
			// index this transaction claimed rolls back with it.
			_ = tx.Rollback()
			winner, found, readErr := r.findExisting(ctx, r.db, userID, chain)
			if readErr != nil {
				return dto.DepositAddress{}, false, readErr
			}
			if !found {
				return dto.DepositAddress{}, false, apperrors.NewInternal(
					"deposit_address_read_failed",
					"deposit address vanished after duplicate insert",
					map[string]any{"user_id": userID, "chain": chain.String()},
				)
			}
			return winner, true, nil
		}
		return dto.DepositAddress{}, false, apperrors.NewInternal(
			"deposit_address_insert_failed",
			"failed to persist deposit address",
			map[string]any{"error": err.Error(), "user_id": userID, "chain": chain.String()},
		)
	}

	if err := tx.Commit(); err != nil {
		return dto.DepositAddress{}, false, apperrors.NewInternal(
			"deposit_address_tx_commit_failed",
			"failed to commit allocation transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed = true

	if r.logger != nil {
		r.logger.Printf(
			"deposit address allocated user_id=%s chain=%s account_index=%d",
			userID, chain, accountIndex,
		)
	}
	return dto.DepositAddress{
		UserID:       userID,
		Chain:        chain,
		Address:      address,
		AccountIndex: accountIndex,
		CreatedAt:    createdAt,
	}, false, nil
}

func (r *Repository) ListByChain(ctx context.Context, chain valueobjects.Chain) ([]dto.DepositAddress, *apperrors.AppError) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, address, account_index, created_at
		FROM deposit_addresses
		WHERE chain = $1
		ORDER BY account_index
	`, chain.String())
	if err != nil {
		return nil, apperrors.NewInternal(
			"deposit_address_query_failed",
			"failed to list addresses for chain",
			map[string]any{"error": err.Error(), "chain": chain.String()},
		)
	}
	defer rows.Close()

	var addresses []dto.DepositAddress
	for rows.Next() {
		entry := dto.DepositAddress{Chain: chain}
		if err := rows.Scan(&entry.UserID, &entry.Address, &entry.AccountIndex, &entry.CreatedAt); err != nil {
			return nil, apperrors.NewInternal(
				"deposit_address_scan_failed",
				"failed to scan deposit address row",
				map[string]any{"error": err.Error()},
			)
		}
		addresses = append(addresses, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"deposit_address_query_failed",
			"failed to iterate deposit addresses",
			map[string]any{"error": err.Error(), "chain": chain.String()},
		)
	}
	return addresses, nil
}

// rowQuerier lets findExisting read through either the allocation
// transaction or the pool after that transaction has rolled back.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) findExisting(ctx context.Context, q rowQuerier, userID string, chain valueobjects.Chain) (dto.DepositAddress, bool, *apperrors.AppError) {
	entry := dto.DepositAddress{UserID: userID, Chain: chain}
	err := q.QueryRowContext(ctx, `
		SELECT address, account_index, created_at
		FROM deposit_addresses
		WHERE user_id = $1 AND chain = $2
	`, userID, chain.String()).Scan(&entry.Address, &entry.AccountIndex, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return dto.DepositAddress{}, false, nil
	}
	if err != nil {
		return dto.DepositAddress{}, false, apperrors.NewInternal(
			"deposit_address_read_failed",
			"failed to read deposit address",
			map[string]any{"error": err.Error(), "user_id": userID, "chain": chain.String()},
		)
	}
	return entry, true, nil
}
