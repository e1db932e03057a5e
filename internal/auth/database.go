package auth

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateProfile(profile *types.Profile) error {
	return d.db.Create(profile).Error
}

func (d *Database) GetProfileByEmail(email string) (*types.Profile, error) {
	var profile types.Profile
	if err := d.db.Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (d *Database) GetProfileByUsername(username string) (*types.Profile, error) {
	var profile types.Profile
	if err := d.db.Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (d *Database) GetProfileByID(profileID string) (*types.Profile, error) {
	var profile types.Profile
	if err := d.db.Where("profile_id = ?", profileID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}
