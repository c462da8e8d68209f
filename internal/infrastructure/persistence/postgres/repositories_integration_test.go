// Package postgres - integration tests against a real PostgreSQL via
// testcontainers.
//
// Requirements: Docker available; tests skip themselves otherwise.
package postgres

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Haleralex/coinledger/internal/application/dtos"
	"github.com/Haleralex/coinledger/internal/application/usecases/movement"
	"github.com/Haleralex/coinledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinledger/internal/domain/errors"
	"github.com/Haleralex/coinledger/internal/domain/valueobjects"
)

type testContainer struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
}

// Shared container for all tests in the package.
var sharedTestContainer *testContainer

func setupSharedTestDB(t *testing.T) *testContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}

	if sharedTestContainer != nil {
		cleanupTables(t, sharedTestContainer.pool)
		return sharedTestContainer
	}

	ctx := context.Background()

	migrationsPath := filepath.Join("..", "..", "..", "..", "migrations")

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "000001_init_schema.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker unavailable, skipping integration tests: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	sharedTestContainer = &testContainer{container: container, pool: pool}
	return sharedTestContainer
}

func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `TRUNCATE ledger_entries, transactions, wallets, asset_types RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// seedCatalogue inserts the COIN asset and the three system wallets, with
// TREASURY and MARKETING pre-funded.
func seedCatalogue(t *testing.T, pool *pgxpool.Pool) int32 {
	t.Helper()
	ctx := context.Background()

	var assetID int32
	err := pool.QueryRow(ctx, `
		INSERT INTO asset_types (code, display_name, is_active)
		VALUES ('COIN', 'Coin', TRUE)
		RETURNING id
	`).Scan(&assetID)
	require.NoError(t, err)

	seed := func(principalID int64, kind string, balance string) {
		_, err := pool.Exec(ctx, `
			INSERT INTO wallets (principal_id, asset_type_id, balance, is_system, system_kind)
			VALUES ($1, $2, $3::numeric, TRUE, $4)
		`, principalID, assetID, balance, kind)
		require.NoError(t, err)
	}
	seed(entities.TreasuryPrincipalID, "TREASURY", "1000000")
	seed(entities.MarketingPrincipalID, "MARKETING", "1000000")
	seed(entities.RevenuePrincipalID, "REVENUE", "0")

	return assetID
}

func TestWalletRepository_GetOrCreate(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewWalletRepository(tc.pool)

	created, err := repo.GetOrCreate(ctx, 7, assetID)
	require.NoError(t, err)
	assert.NotZero(t, created.ID())
	assert.True(t, created.Balance().IsZero())
	assert.False(t, created.IsSystem())

	// Second call returns the same row.
	again, err := repo.GetOrCreate(ctx, 7, assetID)
	require.NoError(t, err)
	assert.Equal(t, created.ID(), again.ID())
}

func TestWalletRepository_GetOrCreate_ConcurrentCreatorsInTransactions(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewWalletRepository(tc.pool)
	uow := NewUnitOfWork(tc.pool)

	// Both creators miss the read and insert inside their own transaction.
	// The loser's conflict must not abort its transaction: it re-reads the
	// winner's row and its transaction stays usable afterwards.
	const workers = 8

	var wg sync.WaitGroup
	ids := make([]int64, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = uow.Execute(ctx, func(txCtx context.Context) error {
				w, err := repo.GetOrCreate(txCtx, 99, assetID)
				if err != nil {
					return err
				}
				ids[i] = w.ID()
				// The transaction must still accept statements after a
				// lost create race.
				_, err = repo.FindByPrincipalAndAsset(txCtx, 99, assetID)
				return err
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "creator %d", i)
	}
	for i := 1; i < workers; i++ {
		assert.Equal(t, ids[0], ids[i], "all creators must converge on one row")
	}

	var count int
	require.NoError(t, tc.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallets WHERE principal_id = 99 AND asset_type_id = $1`, assetID,
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWalletRepository_LockRequiresTransaction(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewWalletRepository(tc.pool)
	w, err := repo.GetOrCreate(ctx, 7, assetID)
	require.NoError(t, err)

	_, err = repo.Lock(ctx, w.ID())
	assert.Error(t, err, "Lock outside a transaction must be refused")
}

func TestWalletRepository_LockAndUpdateBalance(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewWalletRepository(tc.pool)
	uow := NewUnitOfWork(tc.pool)

	w, err := repo.GetOrCreate(ctx, 7, assetID)
	require.NoError(t, err)

	err = uow.Execute(ctx, func(txCtx context.Context) error {
		locked, err := repo.Lock(txCtx, w.ID())
		if err != nil {
			return err
		}
		if err := locked.Credit(valueobjects.MustMoney("25.5")); err != nil {
			return err
		}
		return repo.UpdateBalance(txCtx, locked)
	})
	require.NoError(t, err)

	reread, err := repo.FindByPrincipalAndAsset(ctx, 7, assetID)
	require.NoError(t, err)
	assert.Equal(t, "25.50000000", reread.Balance().String())
}

func TestWalletRepository_NegativeBalanceBackstop(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	// Write a negative balance directly, bypassing the entity layer: the
	// check constraint must hold the line.
	repo := NewWalletRepository(tc.pool)
	w, err := repo.GetOrCreate(ctx, 7, assetID)
	require.NoError(t, err)

	_, err = tc.pool.Exec(ctx, `UPDATE wallets SET balance = -1 WHERE id = $1`, w.ID())
	assert.Error(t, err)
}

func TestTransactionRepository_DuplicateIdempotencyKey(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewTransactionRepository(tc.pool)
	amount := valueobjects.MustMoney("10")

	first, err := entities.NewTransaction("dup-key", entities.MovementTopup, 7, assetID, amount, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreatePending(ctx, first))
	assert.NotZero(t, first.ID())

	second, err := entities.NewTransaction("dup-key", entities.MovementTopup, 7, assetID, amount, nil)
	require.NoError(t, err)
	err = repo.CreatePending(ctx, second)
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateIdempotencyKey)
}

func TestTransactionRepository_FindByIdempotencyKey_Absent(t *testing.T) {
	tc := setupSharedTestDB(t)
	seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewTransactionRepository(tc.pool)

	tx, err := repo.FindByIdempotencyKey(ctx, "no-such-key")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestTransactionRepository_FinalizeCompleted(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewTransactionRepository(tc.pool)

	tx, err := entities.NewTransaction("final-key", entities.MovementSpend, 7, assetID,
		valueobjects.MustMoney("3.14"), map[string]any{"order_id": "A-1"})
	require.NoError(t, err)
	require.NoError(t, repo.CreatePending(ctx, tx))

	require.NoError(t, tx.MarkCompleted())
	require.NoError(t, repo.Finalize(ctx, tx))

	stored, err := repo.FindByIdempotencyKey(ctx, "final-key")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.TransactionStatusCompleted, stored.Status())
	assert.NotNil(t, stored.CompletedAt())
	assert.Equal(t, "3.14000000", stored.Amount().String())
	assert.Equal(t, "A-1", stored.Metadata()["order_id"])

	// A terminal row cannot move again.
	err = repo.Finalize(ctx, tx)
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotPending)
}

func TestTransactionRepository_FinalizeFailedPersistsReason(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	repo := NewTransactionRepository(tc.pool)

	tx, err := entities.NewTransaction("failed-key", entities.MovementSpend, 7, assetID,
		valueobjects.MustMoney("5"), nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreatePending(ctx, tx))

	require.NoError(t, tx.MarkFailed("insufficient funds"))
	require.NoError(t, repo.Finalize(ctx, tx))

	stored, err := repo.FindByPublicID(ctx, tx.PublicID())
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusFailed, stored.Status())
	assert.Equal(t, "insufficient funds", stored.ErrorMessage())
}

func TestLedgerRepository_AppendAndList(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	walletRepo := NewWalletRepository(tc.pool)
	txRepo := NewTransactionRepository(tc.pool)
	ledgerRepo := NewLedgerRepository(tc.pool)

	w, err := walletRepo.GetOrCreate(ctx, 7, assetID)
	require.NoError(t, err)

	tx, err := entities.NewTransaction("ledger-key", entities.MovementTopup, 7, assetID,
		valueobjects.MustMoney("10"), nil)
	require.NoError(t, err)
	require.NoError(t, txRepo.CreatePending(ctx, tx))

	amount := valueobjects.MustMoney("10")
	zero := valueobjects.ZeroMoney()
	debit := entities.NewLedgerEntry(tx.PublicID(), w.ID(), entities.EntryDebit,
		amount, amount, zero, "User 7 spent 10.00000000 COIN")
	credit := entities.NewLedgerEntry(tx.PublicID(), w.ID(), entities.EntryCredit,
		amount, zero, amount, "Revenue from user 7 spend")

	require.NoError(t, ledgerRepo.Append(ctx, debit))
	require.NoError(t, ledgerRepo.Append(ctx, credit))

	entries, err := ledgerRepo.ListByTransaction(ctx, tx.PublicID())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.EntryDebit, entries[0].Type())
	assert.Equal(t, entities.EntryCredit, entries[1].Type())
	assert.Equal(t, "10.00000000", entries[0].Amount().String())

	// Entries referencing an unknown transaction are refused.
	orphan := entities.NewLedgerEntry(uuid.New(), w.ID(), entities.EntryDebit,
		amount, amount, zero, "orphan")
	assert.Error(t, ledgerRepo.Append(ctx, orphan))
}

// newEngine wires the real use case against the container-backed stores.
func newEngine(pool *pgxpool.Pool) *movement.ProcessMovementUseCase {
	return movement.NewProcessMovementUseCase(
		NewAssetTypeRepository(pool),
		NewWalletRepository(pool),
		NewTransactionRepository(pool),
		NewLedgerRepository(pool),
		NewUnitOfWork(pool),
		nil,
	)
}

func TestEngine_EndToEnd(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	engine := newEngine(tc.pool)

	topup, err := engine.Execute(ctx, entities.MovementTopup, dtos.MovementCommand{
		IdempotencyKey: "e2e-topup", UserID: 7, AssetType: "COIN", Amount: "100",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", topup.Status)

	spend, err := engine.Execute(ctx, entities.MovementSpend, dtos.MovementCommand{
		IdempotencyKey: "e2e-spend", UserID: 7, AssetType: "COIN", Amount: "30",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", spend.Status)

	walletRepo := NewWalletRepository(tc.pool)
	user, err := walletRepo.FindByPrincipalAndAsset(ctx, 7, assetID)
	require.NoError(t, err)
	assert.Equal(t, "70.00000000", user.Balance().String())

	revenue, err := walletRepo.FindByPrincipalAndAsset(ctx, entities.RevenuePrincipalID, assetID)
	require.NoError(t, err)
	assert.Equal(t, "30.00000000", revenue.Balance().String())

	// Replay of a finished movement returns the stored row untouched.
	replay, err := engine.Execute(ctx, entities.MovementSpend, dtos.MovementCommand{
		IdempotencyKey: "e2e-spend", UserID: 7, AssetType: "COIN", Amount: "30",
	})
	require.NoError(t, err)
	assert.Equal(t, spend.TransactionID, replay.TransactionID)

	user, err = walletRepo.FindByPrincipalAndAsset(ctx, 7, assetID)
	require.NoError(t, err)
	assert.Equal(t, "70.00000000", user.Balance().String())
}

func TestEngine_ConcurrentFirstMovements(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	engine := newEngine(tc.pool)

	// User 8 has no wallet yet, so both movements race to create it while
	// holding open transactions. Neither may fail: the loser of the create
	// race resolves to the winner's row and proceeds.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Execute(ctx, entities.MovementTopup, dtos.MovementCommand{
				IdempotencyKey: uuid.New().String(),
				UserID:         8,
				AssetType:      "COIN",
				Amount:         "10",
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	walletRepo := NewWalletRepository(tc.pool)
	user, err := walletRepo.FindByPrincipalAndAsset(ctx, 8, assetID)
	require.NoError(t, err)
	assert.Equal(t, "20.00000000", user.Balance().String())
}

func TestEngine_ConcurrentSpends(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetID := seedCatalogue(t, tc.pool)
	ctx := context.Background()

	engine := newEngine(tc.pool)

	_, err := engine.Execute(ctx, entities.MovementTopup, dtos.MovementCommand{
		IdempotencyKey: "conc-fund", UserID: 7, AssetType: "COIN", Amount: "20",
	})
	require.NoError(t, err)

	const workers = 20

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Execute(ctx, entities.MovementSpend, dtos.MovementCommand{
				IdempotencyKey: uuid.New().String(),
				UserID:         7,
				AssetType:      "COIN",
				Amount:         "1",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "spend %d", i)
	}

	walletRepo := NewWalletRepository(tc.pool)
	user, err := walletRepo.FindByPrincipalAndAsset(ctx, 7, assetID)
	require.NoError(t, err)
	assert.Equal(t, "0.00000000", user.Balance().String())
}
