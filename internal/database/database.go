package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/database/migrations"
	"github.com/tradepeer/tradepeer-api/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection.
// TranslateError maps the sqlite unique-constraint failure onto
// gorm.ErrDuplicatedKey, which the rating upsert and like toggle rely on.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate schemas
	err = db.AutoMigrate(
		&types.Profile{},
		&types.Trade{},
		&types.Rating{},
		&types.Like{},
		&types.Comment{},
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddSocialUniqueness(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.AddPnlTriggers(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.AddRankingViews(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
