package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandburr/invoicing/internal/models"
)

// ConnectAndMigrate opens the database named by dsn and brings the schema up
// to date. Postgres DSNs get a retry loop (container startup); anything else
// is opened as a sqlite file. MIGRATIONS=1 switches from AutoMigrate to the
// SQL migration files under ./migrations (postgres only). DB_SEED=1 loads
// demo fixtures.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, errors.New("database DSN is empty; check DATABASE_DSN")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	if IsPostgresDSN(dsn) {
		for i := 0; i < 10; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			time.Sleep(2 * time.Second)
		}
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if migrationsRequested() && IsPostgresDSN(dsn) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range []any{
			&models.Customer{}, &models.Product{}, &models.Invoice{}, &models.InvoiceItem{},
		} {
			if migErr := conn.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	for _, table := range []string{"customers", "products", "invoices", "invoice_items"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}

	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		Seed(conn)
	}
	return conn, nil
}

func migrationsRequested() bool {
	v := strings.ToLower(os.Getenv("MIGRATIONS"))
	return v == "1" || v == "true" || v == "yes"
}

// Seed inserts the demo customers and products when they are not present.
func Seed(conn *gorm.DB) {
	customers := []models.Customer{
		{
			Name:    "Garden Oasis Landscaping",
			Email:   "contact@gardenoasis.com",
			Phone:   "555-0123",
			Address: "1234 Green Valley Rd\nAustin, TX 78701",
		},
		{
			Name:    "Sunset Property Management",
			Email:   "billing@sunsetpm.com",
			Phone:   "555-0456",
			Address: "5678 Oak Street\nDallas, TX 75201",
		},
	}
	for _, c := range customers {
		var existing models.Customer
		if err := conn.Where("name = ?", c.Name).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			conn.Create(&c)
		}
	}
	products := []models.Product{
		{
			Name:        "Lawn Mowing Service",
			Description: "Professional lawn mowing and edging service for residential and commercial properties. Includes grass cutting, edging, and cleanup.",
			Price:       75.00,
		},
		{
			Name:        "Landscape Design Consultation",
			Description: "Comprehensive landscape design consultation including site analysis, plant recommendations, and detailed design plans.",
			Price:       150.00,
		},
	}
	for _, p := range products {
		var existing models.Product
		if err := conn.Where("name = ?", p.Name).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			conn.Create(&p)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using the golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
