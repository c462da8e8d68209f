// Package container wires the application together.
//
// Pattern: Composition Root. The container owns the lifecycle of every
// dependency: lazy creation, access, and cleanup.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinledger/internal/adapters/http"
	"github.com/Haleralex/coinledger/internal/application/ports"
	"github.com/Haleralex/coinledger/internal/application/usecases/movement"
	"github.com/Haleralex/coinledger/internal/application/usecases/transaction"
	"github.com/Haleralex/coinledger/internal/application/usecases/wallet"
	"github.com/Haleralex/coinledger/internal/config"
	"github.com/Haleralex/coinledger/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/coinledger/internal/pkg/logger"
)

// Container is the application DI container.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool *pgxpool.Pool

	// Repositories
	assetTypeRepo   ports.AssetTypeRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	ledgerRepo      ports.LedgerRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Use Cases
	processMovementUC *movement.ProcessMovementUseCase
	getTransactionUC  *transaction.GetTransactionUseCase
	getBalanceUC      *wallet.GetBalanceUseCase

	// HTTP
	httpServer *http.Server
}

// New creates a container for the given configuration.
func New(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Initialize builds every dependency in order: logger, database,
// repositories, use cases, HTTP server.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	c.initRepositories()
	c.logger.Info("Repositories initialized")

	c.initUseCases()
	c.logger.Info("Use cases initialized")

	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

func (c *Container) initLogger() *slog.Logger {
	log := logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    os.Stdout,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(log)
	return log
}

func (c *Container) initDatabase(ctx context.Context) error {
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:            c.config.Database.Host,
		Port:            c.config.Database.Port,
		Database:        c.config.Database.Database,
		User:            c.config.Database.User,
		Password:        c.config.Database.Password,
		SSLMode:         c.config.Database.SSLMode,
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
		ConnectTimeout:  5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	c.pool = pool
	return nil
}

func (c *Container) initRepositories() {
	c.assetTypeRepo = postgres.NewAssetTypeRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.ledgerRepo = postgres.NewLedgerRepository(c.pool)

	c.uow = postgres.NewUnitOfWork(c.pool)
}

func (c *Container) initUseCases() {
	c.processMovementUC = movement.NewProcessMovementUseCase(
		c.assetTypeRepo,
		c.walletRepo,
		c.transactionRepo,
		c.ledgerRepo,
		c.uow,
		c.logger,
	).WithMaxRetries(c.config.Engine.MaxRetries)

	c.getTransactionUC = transaction.NewGetTransactionUseCase(c.transactionRepo, c.logger)
	c.getBalanceUC = wallet.NewGetBalanceUseCase(c.assetTypeRepo, c.walletRepo, c.logger)
}

// dbPinger adapts the pool to the health handler with the persistence
// layer's bounded-timeout ping.
type dbPinger struct {
	pool *pgxpool.Pool
}

func (p dbPinger) Ping(ctx context.Context) error {
	return postgres.HealthCheck(ctx, p.pool)
}

func (c *Container) initHTTPServer() {
	routerConfig := &http.RouterConfig{
		Logger:      c.logger,
		DB:          dbPinger{pool: c.pool},
		Version:     c.config.App.Version,
		Environment: c.config.App.Environment,
	}

	router := http.NewRouter(routerConfig, &http.UseCases{
		Movements:      c.processMovementUC,
		GetTransaction: c.getTransactionUC,
		GetBalance:     c.getBalanceUC,
	})

	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// Getters

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

func (c *Container) AssetTypeRepository() ports.AssetTypeRepository {
	return c.assetTypeRepo
}

func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

func (c *Container) TransactionRepository() ports.TransactionRepository {
	return c.transactionRepo
}

func (c *Container) LedgerRepository() ports.LedgerRepository {
	return c.ledgerRepo
}

func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

func (c *Container) ProcessMovementUseCase() *movement.ProcessMovementUseCase {
	return c.processMovementUC
}

func (c *Container) GetBalanceUseCase() *wallet.GetBalanceUseCase {
	return c.getBalanceUC
}

// Run starts the HTTP server and blocks until a shutdown signal.
func (c *Container) Run() error {
	c.logger.Info("Starting CoinLedger API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	return c.httpServer.Run()
}

// Shutdown stops the HTTP server and closes the database pool.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if c.pool != nil {
		// Close waits for checked-out connections, so bound it by the context.
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
