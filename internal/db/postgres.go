package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/resys-shop/backend/internal/logger"
	"github.com/resys-shop/backend/internal/types"
	"github.com/resys-shop/backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "eshopdb", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}
	log.Info("uuid-ossp extension enabled")

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Taxonomy{},
		&types.Taxon{},
		&types.TaxonRule{},
		&types.Product{},
		&types.Variant{},
		&types.Price{},
		&types.ProductProperty{},
		&types.Classification{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	if err := s.db.Exec(`
		ALTER TABLE "taxa"
		ADD CONSTRAINT "fk_taxa_taxonomy_id"
		FOREIGN KEY ("taxonomy_id")
		REFERENCES "taxonomies"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_taxa_taxonomy_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "taxon_rules"
		ADD CONSTRAINT "fk_taxon_rules_taxon_id"
		FOREIGN KEY ("taxon_id")
		REFERENCES "taxa"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_taxon_rules_taxon_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "classification"
		ADD CONSTRAINT "fk_classification_taxon_id"
		FOREIGN KEY ("taxon_id")
		REFERENCES "taxa"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_classification_taxon_id: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
