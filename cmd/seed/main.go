// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"garasi/internal/core/id"
	"garasi/internal/core/types"
	"garasi/internal/infrastructure/storage/postgres"
	"garasi/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect to database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	// Seed admin user
	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@garasi.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	// Check if admin already exists
	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now()

	// Create admin user (no branch: admin operates across all branches)
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, name, role, branch_id,
			is_active, is_admin, failed_login_attempts,
			created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'System Admin', 'admin', NULL, true, true, 0, $4, $4, 1)
	`, userID, adminEmail, string(passwordHash), now)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created",
		"email", adminEmail,
		"user_id", userID,
	)

	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Seed Branches
	// We need to capture IDs for staff assignment and stock records.
	branches := []struct {
		code    string
		name    string
		address string
		phone   string
		email   string
	}{
		{"BR-001", "Garasi Pusat", "Jl. Gatot Subroto No. 12, Jakarta Selatan", "+62-21-555-0101", "pusat@garasi.io"},
		{"BR-002", "Garasi Bandung", "Jl. Asia Afrika No. 88, Bandung", "+62-22-555-0202", "bandung@garasi.io"},
	}

	branchIDs := make([]id.ID, 0, len(branches))

	for _, b := range branches {
		branchID := id.New()
		commandTag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_branches (id, code, name, address, phone, email, is_active, version, deletion_mark)
			VALUES ($1, $2, $3, $4, $5, $6, true, 1, false)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, branchID, b.code, b.name, b.address, b.phone, b.email)
		if err != nil {
			log.Warnw("failed to seed branch", "code", b.code, "error", err)
			continue
		}

		// If inserted, use new ID. If conflict, we need to fetch existing ID.
		if commandTag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, `
				SELECT id FROM cat_branches
				WHERE code = $1 AND deletion_mark = FALSE
			`, b.code).Scan(&branchID)
			if err != nil {
				log.Warnw("failed to fetch existing branch id", "code", b.code, "error", err)
				continue
			}
		}

		branchIDs = append(branchIDs, branchID)
	}

	if len(branchIDs) == 0 {
		return errors.New("no branches available for demo data")
	}

	// 2. Seed staff users, one per role, spread over the branches.
	// Mechanics are needed to demo service order assignment.
	staff := []struct {
		email  string
		name   string
		role   string
		branch id.ID
	}{
		{"manager@garasi.io", "Dewi Lestari", "manager", branchIDs[0]},
		{"kasir@garasi.io", "Rudi Hartono", "salesperson", branchIDs[0]},
		{"mekanik1@garasi.io", "Agus Salim", "mechanic", branchIDs[0]},
		{"mekanik2@garasi.io", "Budi Santoso", "mechanic", branchIDs[len(branchIDs)-1]},
	}

	staffPassword := os.Getenv("SEED_STAFF_PASSWORD")
	if staffPassword == "" {
		staffPassword = "Garasi123!"
	}

	staffHash, err := bcrypt.GenerateFromPassword([]byte(staffPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash staff password: %w", err)
	}

	now := time.Now()

	for _, s := range staff {
		var existing id.ID
		err := pool.Pool.QueryRow(ctx,
			`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
			s.email,
		).Scan(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Warnw("failed to check staff user", "email", s.email, "error", err)
			continue
		}

		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO users (
				id, email, password_hash, name, role, branch_id,
				is_active, is_admin, failed_login_attempts,
				created_at, updated_at, version
			)
			VALUES ($1, $2, $3, $4, $5, $6, true, false, 0, $7, $7, 1)
		`, id.New(), s.email, string(staffHash), s.name, s.role, s.branch, now)
		if err != nil {
			log.Warnw("failed to seed staff user", "email", s.email, "error", err)
		}
	}

	// 3. Seed Products
	// We need to capture IDs for the stock records below.
	type productSeed struct {
		code     string
		name     string
		sku      string
		category string
		brand    string
		unit     string
		cost     int64
		selling  int64
		reorder  int64
		reorderQ int64
		initial  int64
	}

	products := []productSeed{
		{"PRD-00001", "Oil Filter Yamaha NMAX", "OF-YMH-NMX", "sparepart", "Yamaha", "pcs", 35000, 55000, 10, 20, 40},
		{"PRD-00002", "Engine Oil 10W-40 1L", "EO-1040-1L", "oil", "Shell", "liter", 52000, 75000, 24, 48, 120},
		{"PRD-00003", "Brake Pad Set Honda Vario", "BP-HND-VAR", "sparepart", "Honda", "set", 68000, 98000, 8, 16, 30},
		{"PRD-00004", "Spark Plug NGK CPR8EA", "SP-NGK-CP8", "sparepart", "NGK", "pcs", 18000, 30000, 20, 40, 80},
		{"PRD-00005", "Chain Lube 200ml", "CL-REX-200", "accessory", "Rexco", "pcs", 28000, 45000, 12, 24, 36},
		{"PRD-00006", "Coolant 500ml", "CO-PRE-500", "oil", "Prestone", "pcs", 22000, 38000, 10, 20, 25},
	}

	productIDs := make([]id.ID, len(products))

	for i, p := range products {
		productID := id.New()
		commandTag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_products (
				id, code, name, sku, category, brand, unit,
				cost_price, selling_price, is_active, version, deletion_mark
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, 1, false)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, productID, p.code, p.name, p.sku, p.category, p.brand, p.unit,
			types.NewMoneyFromInt(p.cost), types.NewMoneyFromInt(p.selling))
		if err != nil {
			log.Warnw("failed to seed product", "code", p.code, "error", err)
			continue
		}

		if commandTag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, `
				SELECT id FROM cat_products
				WHERE code = $1 AND deletion_mark = FALSE
			`, p.code).Scan(&productID)
			if err != nil {
				log.Warnw("failed to fetch existing product id", "code", p.code, "error", err)
				continue
			}
		}

		productIDs[i] = productID
	}

	// 4. Seed initial stock for every product at every branch.
	// The second branch starts with roughly half the quantity so low-stock
	// reports have something to show.
	for i, p := range products {
		if id.IsNil(productIDs[i]) {
			continue
		}

		for j, branchID := range branchIDs {
			quantity := p.initial
			if j > 0 {
				quantity = p.initial / 2
			}
			location := fmt.Sprintf("%c-%02d", 'A'+j, i+1)

			_, err := pool.Pool.Exec(ctx, `
				INSERT INTO reg_stock (
					product_id, branch_id, quantity, reserved_quantity,
					cost_price, selling_price, reorder_point, reorder_quantity,
					location, created_at, updated_at
				)
				VALUES ($1, $2, $3, 0, $4, $5, $6, $7, $8, $9, $9)
				ON CONFLICT (product_id, branch_id) DO NOTHING
			`, productIDs[i], branchID, quantity,
				types.NewMoneyFromInt(p.cost), types.NewMoneyFromInt(p.selling),
				p.reorder, p.reorderQ, location, now)
			if err != nil {
				log.Warnw("failed to seed stock record",
					"product", p.code,
					"branch", branchID,
					"error", err,
				)
			}
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}
