package main

import (
	"fmt"
	"log"
	"os"

	"anoa.com/aiiforsaxp/internal/bootstrap"
	"anoa.com/aiiforsaxp/internal/config"
	"anoa.com/aiiforsaxp/pkg/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := bootstrap.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Println("✅ Migration completed")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert achievement, badge and daily challenge definitions",
	RunE:  runSeed,
}

var seedFile string

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file (defaults to the built-in definitions)")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func runSeed(_ *cobra.Command, _ []string) error {
	var raw []byte
	if seedFile != "" {
		b, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}

	data, err := bootstrap.LoadSeed(raw)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	return bootstrap.Seed(db, data)
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Connect(cfg.DSN())
}

func migrateAndSeed(db *gorm.DB) error {
	if err := bootstrap.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	data, err := bootstrap.LoadSeed(nil)
	if err != nil {
		return err
	}
	return bootstrap.Seed(db, data)
}
