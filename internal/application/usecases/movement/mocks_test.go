package movement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/coinledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

// Mock repositories. Each method delegates to a function field when set so
// individual tests override only what they care about.

type mockAssetTypeRepo struct {
	findByCodeFunc func(ctx context.Context, code string) (*entities.AssetType, error)
	findByIDFunc   func(ctx context.Context, id int32) (*entities.AssetType, error)
}

func (m *mockAssetTypeRepo) FindByCode(ctx context.Context, code string) (*entities.AssetType, error) {
	if m.findByCodeFunc != nil {
		return m.findByCodeFunc(ctx, code)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockAssetTypeRepo) FindByID(ctx context.Context, id int32) (*entities.AssetType, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

type mockWalletRepo struct {
	findByPrincipalAndAssetFunc func(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error)
	getOrCreateFunc             func(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error)
	lockFunc                    func(ctx context.Context, walletID int64) (*entities.Wallet, error)
	updateBalanceFunc           func(ctx context.Context, wallet *entities.Wallet) error

	lockedIDs      []int64
	updatedWallets []*entities.Wallet
}

func (m *mockWalletRepo) FindByPrincipalAndAsset(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error) {
	if m.findByPrincipalAndAssetFunc != nil {
		return m.findByPrincipalAndAssetFunc(ctx, principalID, assetTypeID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) GetOrCreate(ctx context.Context, principalID int64, assetTypeID int32) (*entities.Wallet, error) {
	if m.getOrCreateFunc != nil {
		return m.getOrCreateFunc(ctx, principalID, assetTypeID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) Lock(ctx context.Context, walletID int64) (*entities.Wallet, error) {
	m.lockedIDs = append(m.lockedIDs, walletID)
	if m.lockFunc != nil {
		return m.lockFunc(ctx, walletID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	m.updatedWallets = append(m.updatedWallets, wallet)
	if m.updateBalanceFunc != nil {
		return m.updateBalanceFunc(ctx, wallet)
	}
	return nil
}

type mockTransactionRepo struct {
	findByIdempotencyKeyFunc func(ctx context.Context, key string) (*entities.Transaction, error)
	findByPublicIDFunc       func(ctx context.Context, publicID uuid.UUID) (*entities.Transaction, error)
	createPendingFunc        func(ctx context.Context, tx *entities.Transaction) error
	finalizeFunc             func(ctx context.Context, tx *entities.Transaction) error

	created   []*entities.Transaction
	finalized []*entities.Transaction
}

func (m *mockTransactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	if m.findByIdempotencyKeyFunc != nil {
		return m.findByIdempotencyKeyFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockTransactionRepo) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*entities.Transaction, error) {
	if m.findByPublicIDFunc != nil {
		return m.findByPublicIDFunc(ctx, publicID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockTransactionRepo) CreatePending(ctx context.Context, tx *entities.Transaction) error {
	m.created = append(m.created, tx)
	if m.createPendingFunc != nil {
		return m.createPendingFunc(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepo) Finalize(ctx context.Context, tx *entities.Transaction) error {
	m.finalized = append(m.finalized, tx)
	if m.finalizeFunc != nil {
		return m.finalizeFunc(ctx, tx)
	}
	return nil
}

type mockLedgerRepo struct {
	appendFunc func(ctx context.Context, entry *entities.LedgerEntry) error

	appended []*entities.LedgerEntry
}

func (m *mockLedgerRepo) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	m.appended = append(m.appended, entry)
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	return nil
}

func (m *mockLedgerRepo) ListByTransaction(ctx context.Context, transactionPublicID uuid.UUID) ([]*entities.LedgerEntry, error) {
	return append([]*entities.LedgerEntry{}, m.appended...), nil
}

type mockUnitOfWork struct {
	executeFunc func(ctx context.Context, fn func(context.Context) error) error

	executions int
}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	m.executions++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, fn)
	}
	return fn(ctx)
}

func (m *mockUnitOfWork) ExecuteWithRetry(ctx context.Context, maxRetries int, fn func(context.Context) error) error {
	return m.Execute(ctx, fn)
}

// Test fixtures

func testAsset(id int32, code string) *entities.AssetType {
	now := time.Now().UTC()
	return entities.ReconstructAssetType(id, code, code, true, now, now)
}

func testWallet(id, principalID int64, assetTypeID int32, balance string) *entities.Wallet {
	kind := entities.SystemKindForPrincipal(principalID)
	now := time.Now().UTC()
	return entities.ReconstructWallet(id, principalID, assetTypeID,
		valueobjects.MustMoney(balance), kind != "", kind, now, now)
}
