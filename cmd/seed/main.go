// Seed loads the asset catalogue and system wallets. Safe to run repeatedly:
// every insert is ON CONFLICT DO NOTHING, so existing rows (and balances) are
// left untouched.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Haleralex/coinledger/internal/domain/entities"
)

type assetSeed struct {
	code string
	name string
}

type systemWalletSeed struct {
	principalID int64
	kind        entities.SystemKind
	balance     string
}

var (
	assets = []assetSeed{
		{"COIN", "Coin"},
		{"GEM", "Gem"},
		{"GOLD", "Gold"},
	}

	// TREASURY and MARKETING start funded so topups and bonuses work out of
	// the box; REVENUE starts empty and only accumulates.
	systemWallets = []systemWalletSeed{
		{entities.TreasuryPrincipalID, entities.SystemKindTreasury, "1000000"},
		{entities.MarketingPrincipalID, entities.SystemKindMarketing, "1000000"},
		{entities.RevenuePrincipalID, entities.SystemKindRevenue, "0"},
	}
)

func main() {
	_ = godotenv.Load()

	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "Database connection URL")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		host := getEnvOrDefault("COINLEDGER_DATABASE_HOST", "localhost")
		port := getEnvOrDefault("COINLEDGER_DATABASE_PORT", "5432")
		user := getEnvOrDefault("COINLEDGER_DATABASE_USER", "postgres")
		password := getEnvOrDefault("COINLEDGER_DATABASE_PASSWORD", "postgres")
		dbname := getEnvOrDefault("COINLEDGER_DATABASE_DATABASE", "coinledger")
		sslmode := getEnvOrDefault("COINLEDGER_DATABASE_SSL_MODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			user, password, host, port, dbname, sslmode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	if err := seed(ctx, pool); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	fmt.Println("Seed data applied successfully")
}

func seed(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range assets {
		tag, err := tx.Exec(ctx, `
			INSERT INTO asset_types (code, display_name, is_active)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (code) DO NOTHING`,
			a.code, a.name,
		)
		if err != nil {
			return fmt.Errorf("insert asset %s: %w", a.code, err)
		}
		if tag.RowsAffected() > 0 {
			fmt.Printf("created asset type %s\n", a.code)
		}
	}

	for _, a := range assets {
		var assetTypeID int32
		if err := tx.QueryRow(ctx,
			`SELECT id FROM asset_types WHERE code = $1`, a.code,
		).Scan(&assetTypeID); err != nil {
			return fmt.Errorf("resolve asset %s: %w", a.code, err)
		}

		for _, w := range systemWallets {
			tag, err := tx.Exec(ctx, `
				INSERT INTO wallets (principal_id, asset_type_id, balance, is_system, system_kind)
				VALUES ($1, $2, $3::numeric, TRUE, $4)
				ON CONFLICT (principal_id, asset_type_id) DO NOTHING`,
				w.principalID, assetTypeID, w.balance, string(w.kind),
			)
			if err != nil {
				return fmt.Errorf("insert %s wallet for %s: %w", w.kind, a.code, err)
			}
			if tag.RowsAffected() > 0 {
				fmt.Printf("created %s wallet for %s (balance %s)\n", w.kind, a.code, w.balance)
			}
		}
	}

	return tx.Commit(ctx)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
