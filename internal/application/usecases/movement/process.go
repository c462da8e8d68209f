// Package movement implements the transaction-processing engine: the one
// writer of wallet balances and transaction statuses. Given a typed movement
// request it locks the affected wallets in a deadlock-free order, validates
// invariants, mutates balances, writes the double-entry ledger pair and
// finalizes the transaction record, all inside one database transaction.
package movement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Haleralex/coinledger/internal/application/dtos"
	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/domain/entities"
	"github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// DefaultMaxRetries bounds re-execution on transient storage failures
// (deadlock, lock-wait timeout). The lock order is total, so genuine
// deadlocks should not arise; lock-wait timeouts under sustained contention
// are the expected transient failure.
const DefaultMaxRetries = 3

// route fixes the source and destination principal of a movement type.
// The source wallet is debited, the destination credited.
type route struct {
	sourcePrincipal int64
	destPrincipal   int64
}

// resolveRoute returns the posting route for a movement:
//
//	TOPUP: TREASURY  -> user
//	BONUS: MARKETING -> user
//	SPEND: user      -> REVENUE
func resolveRoute(movementType entities.MovementType, userID int64) (route, error) {
	switch movementType {
	case entities.MovementTopup:
		return route{sourcePrincipal: entities.TreasuryPrincipalID, destPrincipal: userID}, nil
	case entities.MovementBonus:
		return route{sourcePrincipal: entities.MarketingPrincipalID, destPrincipal: userID}, nil
	case entities.MovementSpend:
		return route{sourcePrincipal: userID, destPrincipal: entities.RevenuePrincipalID}, nil
	default:
		return route{}, errors.ErrInvalidMovementType
	}
}

// ProcessMovementUseCase is the engine entry point. One instance serves all
// movement types; the type is an argument, not a field, so the HTTP adapter
// can register one handler per endpoint against the same engine.
type ProcessMovementUseCase struct {
	assetTypes   ports.AssetTypeRepository
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	ledger       ports.LedgerRepository
	uow          ports.UnitOfWork
	logger       *slog.Logger
	maxRetries   int
}

// NewProcessMovementUseCase creates the engine.
func NewProcessMovementUseCase(
	assetTypes ports.AssetTypeRepository,
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	ledger ports.LedgerRepository,
	uow ports.UnitOfWork,
	logger *slog.Logger,
) *ProcessMovementUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessMovementUseCase{
		assetTypes:   assetTypes,
		wallets:      wallets,
		transactions: transactions,
		ledger:       ledger,
		uow:          uow,
		logger:       logger,
		maxRetries:   DefaultMaxRetries,
	}
}

// WithMaxRetries overrides the transient-failure retry bound. Values below 1
// are ignored.
func (uc *ProcessMovementUseCase) WithMaxRetries(n int) *ProcessMovementUseCase {
	if n >= 1 {
		uc.maxRetries = n
	}
	return uc
}

// Execute processes one movement.
//
// Algorithm:
//  1. Validate the request shape (no DB transaction open yet).
//  2. Idempotency fast-path: a transaction already bound to the key is
//     returned verbatim, whatever its status.
//  3. Inside one DB transaction (with bounded retry on transient failures):
//     resolve wallets, lock them in ascending wallet-id order, insert the
//     PENDING record, validate funds, apply both deltas against the locked
//     instances, append the DEBIT/CREDIT ledger pair, finalize COMPLETED.
//  4. A duplicate-key violation on insert means a concurrent duplicate won
//     the race: roll back, re-read by key, return the winner's row.
func (uc *ProcessMovementUseCase) Execute(ctx context.Context, movementType entities.MovementType, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error) {
	amount, err := uc.validate(movementType, cmd)
	if err != nil {
		return nil, err
	}

	// Idempotency fast-path, checked before anything else so a replay is
	// answered from the stored row even if the catalogue changed since the
	// first commit. Best effort only: two duplicates may both miss here, the
	// unique index on insert is the authoritative check.
	if existing, err := uc.transactions.FindByIdempotencyKey(ctx, cmd.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		uc.logger.InfoContext(ctx, "idempotent replay",
			slog.String("idempotency_key", cmd.IdempotencyKey),
			slog.String("transaction_id", existing.PublicID().String()),
		)
		return dtos.MapTransactionToDTO(existing), nil
	}

	// Asset resolution happens before the transaction opens; an unknown or
	// inactive asset never touches wallet state.
	asset, err := uc.assetTypes.FindByCode(ctx, cmd.AssetType)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ValidationError{Field: "asset_type", Message: fmt.Sprintf("unknown asset type %q", cmd.AssetType)}
		}
		return nil, err
	}
	if !asset.IsActive() {
		return nil, errors.ValidationError{Field: "asset_type", Message: fmt.Sprintf("asset type %q is not active", cmd.AssetType)}
	}

	r, err := resolveRoute(movementType, cmd.UserID)
	if err != nil {
		return nil, err
	}

	var result *entities.Transaction

	err = uc.uow.ExecuteWithRetry(ctx, uc.maxRetries, func(txCtx context.Context) error {
		var txErr error
		result, txErr = uc.processLocked(txCtx, movementType, cmd, asset, r, amount)
		return txErr
	})

	if err != nil {
		if errors.IsDuplicateIdempotencyKey(err) {
			// Second idempotency check: a concurrent duplicate committed
			// between the fast-path and our insert.
			existing, findErr := uc.transactions.FindByIdempotencyKey(ctx, cmd.IdempotencyKey)
			if findErr == nil && existing != nil {
				return dtos.MapTransactionToDTO(existing), nil
			}
			return nil, err
		}
		return nil, err
	}

	uc.logger.InfoContext(ctx, "movement completed",
		slog.String("type", string(movementType)),
		slog.String("transaction_id", result.PublicID().String()),
		slog.Int64("user_id", cmd.UserID),
		slog.String("asset_type", asset.Code()),
		slog.String("amount", amount.String()),
	)

	return dtos.MapTransactionToDTO(result), nil
}

// validate checks the request shape. Runs before any DB work.
func (uc *ProcessMovementUseCase) validate(movementType entities.MovementType, cmd dtos.MovementCommand) (valueobjects.Money, error) {
	if !movementType.IsValid() {
		return valueobjects.Money{}, errors.ErrInvalidMovementType
	}
	if cmd.IdempotencyKey == "" {
		return valueobjects.Money{}, errors.ValidationError{Field: "idempotency_key", Message: "idempotency key is required"}
	}
	if cmd.UserID <= 0 {
		return valueobjects.Money{}, errors.ValidationError{Field: "user_id", Message: "user id must be positive"}
	}

	amount, err := valueobjects.NewMoney(cmd.Amount)
	if err != nil {
		return valueobjects.Money{}, errors.ValidationError{Field: "amount", Message: err.Error()}
	}
	if !amount.IsPositive() {
		return valueobjects.Money{}, errors.ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return amount, nil
}

// processLocked is the body of the DB transaction. Every repository call uses
// txCtx so all of it commits or rolls back together.
func (uc *ProcessMovementUseCase) processLocked(
	txCtx context.Context,
	movementType entities.MovementType,
	cmd dtos.MovementCommand,
	asset *entities.AssetType,
	r route,
	amount valueobjects.Money,
) (*entities.Transaction, error) {
	source, dest, err := uc.resolveWallets(txCtx, r, asset)
	if err != nil {
		return nil, err
	}

	// Deterministic lock ordering: ascending wallet id gives a total order
	// over all wallets, so lock cycles cannot form.
	source, dest, err = uc.lockOrdered(txCtx, source, dest)
	if err != nil {
		return nil, err
	}

	record, err := entities.NewTransaction(cmd.IdempotencyKey, movementType, cmd.UserID, asset.ID(), amount, cmd.Metadata)
	if err != nil {
		return nil, err
	}
	if err := uc.transactions.CreatePending(txCtx, record); err != nil {
		return nil, err
	}

	// Funds validation. The debit below would catch this too; checking first
	// lets TOPUP/BONUS surface a depleted system source as an operational
	// failure rather than a user-facing shortfall.
	if !source.HasSufficientBalance(amount) {
		if movementType == entities.MovementSpend {
			return nil, errors.NewInsufficientFunds(source.Balance(), amount)
		}
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("%s wallet depleted for asset %s", source.SystemKind(), asset.Code()), nil)
	}

	sourceBefore := source.Balance()
	destBefore := dest.Balance()

	if err := source.Debit(amount); err != nil {
		return nil, err
	}
	if err := dest.Credit(amount); err != nil {
		return nil, err
	}

	// Persist against the locked in-memory instances; never re-select.
	if err := uc.wallets.UpdateBalance(txCtx, source); err != nil {
		return nil, err
	}
	if err := uc.wallets.UpdateBalance(txCtx, dest); err != nil {
		return nil, err
	}

	debitDesc, creditDesc := entryDescriptions(movementType, cmd.UserID, amount, asset.Code())

	debit := entities.NewLedgerEntry(record.PublicID(), source.ID(), entities.EntryDebit,
		amount, sourceBefore, source.Balance(), debitDesc)
	credit := entities.NewLedgerEntry(record.PublicID(), dest.ID(), entities.EntryCredit,
		amount, destBefore, dest.Balance(), creditDesc)

	if err := uc.ledger.Append(txCtx, debit); err != nil {
		return nil, err
	}
	if err := uc.ledger.Append(txCtx, credit); err != nil {
		return nil, err
	}

	if err := record.MarkCompleted(); err != nil {
		return nil, err
	}
	if err := uc.transactions.Finalize(txCtx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// resolveWallets loads or creates the two wallets of the posting. System
// wallets are seeded out of band; their absence is an operational failure,
// never a lazy create. User wallets are created lazily with zero balance.
func (uc *ProcessMovementUseCase) resolveWallets(txCtx context.Context, r route, asset *entities.AssetType) (source, dest *entities.Wallet, err error) {
	source, err = uc.resolveWallet(txCtx, r.sourcePrincipal, asset)
	if err != nil {
		return nil, nil, err
	}
	dest, err = uc.resolveWallet(txCtx, r.destPrincipal, asset)
	if err != nil {
		return nil, nil, err
	}
	return source, dest, nil
}

func (uc *ProcessMovementUseCase) resolveWallet(txCtx context.Context, principalID int64, asset *entities.AssetType) (*entities.Wallet, error) {
	if kind := entities.SystemKindForPrincipal(principalID); kind != "" {
		w, err := uc.wallets.FindByPrincipalAndAsset(txCtx, principalID, asset.ID())
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.NewConfigurationError(
					fmt.Sprintf("%s wallet not seeded for asset %s", kind, asset.Code()), nil)
			}
			return nil, err
		}
		return w, nil
	}
	return uc.wallets.GetOrCreate(txCtx, principalID, asset.ID())
}

// lockOrdered acquires both row locks in ascending wallet-id order and
// returns fresh locked views mapped back to their source/dest roles.
func (uc *ProcessMovementUseCase) lockOrdered(txCtx context.Context, source, dest *entities.Wallet) (*entities.Wallet, *entities.Wallet, error) {
	ids := []int64{source.ID(), dest.ID()}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[int64]*entities.Wallet, 2)
	for _, id := range ids {
		w, err := uc.wallets.Lock(txCtx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = w
	}

	return locked[source.ID()], locked[dest.ID()], nil
}

// entryDescriptions renders the human-readable ledger leg descriptions.
func entryDescriptions(movementType entities.MovementType, userID int64, amount valueobjects.Money, assetCode string) (debit, credit string) {
	switch movementType {
	case entities.MovementTopup:
		return fmt.Sprintf("User %d purchased %s %s", userID, amount, assetCode),
			fmt.Sprintf("Purchased %s %s", amount, assetCode)
	case entities.MovementBonus:
		return fmt.Sprintf("Bonus granted to user %d", userID),
			fmt.Sprintf("Received %s %s bonus", amount, assetCode)
	default:
		return fmt.Sprintf("User %d spent %s %s", userID, amount, assetCode),
			fmt.Sprintf("Revenue from user %d spend", userID)
	}
}
