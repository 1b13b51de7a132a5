package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pitchside/cricket-xi/internal/roles"
	"github.com/pitchside/cricket-xi/internal/types"
)

// SeasonalRoleRecord is one (player, season) role assignment row.
type SeasonalRoleRecord struct {
	ID       uint   `gorm:"primaryKey"`
	PlayerID string `gorm:"size:64;uniqueIndex:idx_player_season;not null"`
	Season   int    `gorm:"uniqueIndex:idx_player_season;not null"`
	Role     string `gorm:"size:8;not null"`
}

func (SeasonalRoleRecord) TableName() string { return "seasonal_roles" }

// GlobalRoleRecord is one player's cross-season role row.
type GlobalRoleRecord struct {
	ID       uint   `gorm:"primaryKey"`
	PlayerID string `gorm:"size:64;uniqueIndex;not null"`
	Role     string `gorm:"size:8;not null"`
}

func (GlobalRoleRecord) TableName() string { return "global_roles" }

// RoleStore persists role table snapshots.
type RoleStore struct {
	db *DB
}

// NewRoleStore creates a role store and ensures its schema exists.
func NewRoleStore(db *DB) (*RoleStore, error) {
	if err := db.AutoMigrate(&SeasonalRoleRecord{}, &GlobalRoleRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate role tables: %w", err)
	}
	return &RoleStore{db: db}, nil
}

// SaveTable replaces the persisted snapshot with the given table in one
// transaction, so readers never observe a half-written snapshot.
func (s *RoleStore) SaveTable(table *roles.Table) error {
	seasonal, global := table.Export()

	seasonalRecords := make([]SeasonalRoleRecord, 0, len(seasonal))
	for key, role := range seasonal {
		seasonalRecords = append(seasonalRecords, SeasonalRoleRecord{
			PlayerID: key.PlayerID,
			Season:   key.Season,
			Role:     string(role),
		})
	}
	globalRecords := make([]GlobalRoleRecord, 0, len(global))
	for playerID, role := range global {
		globalRecords = append(globalRecords, GlobalRoleRecord{
			PlayerID: playerID,
			Role:     string(role),
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SeasonalRoleRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear seasonal roles: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&GlobalRoleRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear global roles: %w", err)
		}
		if len(seasonalRecords) > 0 {
			if err := tx.CreateInBatches(seasonalRecords, 500).Error; err != nil {
				return fmt.Errorf("failed to save seasonal roles: %w", err)
			}
		}
		if len(globalRecords) > 0 {
			if err := tx.CreateInBatches(globalRecords, 500).Error; err != nil {
				return fmt.Errorf("failed to save global roles: %w", err)
			}
		}
		return nil
	})
}

// LoadTable reads the persisted snapshot back into an immutable table.
func (s *RoleStore) LoadTable() (*roles.Table, error) {
	var seasonalRecords []SeasonalRoleRecord
	if err := s.db.Find(&seasonalRecords).Error; err != nil {
		return nil, fmt.Errorf("failed to load seasonal roles: %w", err)
	}
	var globalRecords []GlobalRoleRecord
	if err := s.db.Find(&globalRecords).Error; err != nil {
		return nil, fmt.Errorf("failed to load global roles: %w", err)
	}

	seasonal := make(map[roles.SeasonKey]types.Role, len(seasonalRecords))
	for _, rec := range seasonalRecords {
		role, err := types.ParseRole(rec.Role)
		if err != nil {
			return nil, fmt.Errorf("seasonal role row %d: %w", rec.ID, err)
		}
		seasonal[roles.SeasonKey{PlayerID: rec.PlayerID, Season: rec.Season}] = role
	}
	global := make(map[string]types.Role, len(globalRecords))
	for _, rec := range globalRecords {
		role, err := types.ParseRole(rec.Role)
		if err != nil {
			return nil, fmt.Errorf("global role row %d: %w", rec.ID, err)
		}
		global[rec.PlayerID] = role
	}

	return roles.NewTable(seasonal, global), nil
}
