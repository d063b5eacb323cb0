// Package main provides a CLI tool for seeding the database with demo
// catalog data for local development.
package main

import (
	"context"
	"fmt"
	"os"

	"clinstock/internal/config"
	"clinstock/internal/core/id"
	"clinstock/internal/infrastructure/storage/postgres"
	"clinstock/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedCatalogs(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed catalogs", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedCatalogs(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	type entry struct {
		table string
		name  string
	}

	entries := []entry{
		{"suppliers", "Central Pharma Distribuidora"},
		{"suppliers", "MedSupply Brasil"},
		{"users", "Dra. Helena Costa"},
		{"users", "Enf. Marcos Lima"},
		{"clients", "Paciente Ana Souza"},
		{"clients", "Paciente João Pereira"},
	}

	for _, e := range entries {
		sql := fmt.Sprintf(
			"INSERT INTO %s (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING", e.table)
		if _, err := pool.Exec(ctx, sql, id.New(), e.name); err != nil {
			return fmt.Errorf("seed %s: %w", e.table, err)
		}
		log.Infow("seeded catalog entry", "table", e.table, "name", e.name)
	}

	products := []struct {
		name         string
		unit         string
		minimumStock int64
	}{
		{"Soro Fisiológico 0.9%", "ml", 20},
		{"Dipirona 500mg", "comprimido", 50},
		{"Luva de Procedimento M", "par", 100},
	}

	for _, p := range products {
		sql := `
			INSERT INTO products (id, name, unit, minimum_stock)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`
		if _, err := pool.Exec(ctx, sql, id.New(), p.name, p.unit, p.minimumStock); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		log.Infow("seeded product", "name", p.name)
	}

	return nil
}
