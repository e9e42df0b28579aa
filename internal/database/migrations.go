package database

import (
	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
)

// Models lists every table in dependency order.
var Models = []interface{}{
	&models.User{},
	&models.School{},
	&models.CommunityCenter{},
	&models.Group{},
	&models.GroupMember{},
	&models.Vehicle{},
	&models.Child{},
	&models.Carpool{},
	&models.Request{},
	&models.Message{},
	&models.GroupMessage{},
	&models.NotificationPreference{},
	&models.Friend{},
}

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}

	statements := []string{
		// Pending requests are scanned per group and pickup time.
		`CREATE INDEX IF NOT EXISTS idx_requests_pending
			ON requests (group_id, pickup_time)
			WHERE carpool_id IS NULL AND is_approved = false`,
		// A matched request must also be approved.
		`ALTER TABLE requests DROP CONSTRAINT IF EXISTS requests_matched_approved_check`,
		`ALTER TABLE requests ADD CONSTRAINT requests_matched_approved_check
			CHECK (carpool_id IS NULL OR is_approved)`,
		`CREATE INDEX IF NOT EXISTS idx_schools_name_lower ON schools (lower(name) text_pattern_ops)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
