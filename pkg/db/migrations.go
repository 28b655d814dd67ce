package db

import (
	"sort"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

// migrations are one-off data migrations keyed by a sortable name. They run
// after the schema migration, in name order, and must be idempotent.
var migrations = map[string]func(*gorm.DB) error{
	"0001_backfillIsOfficial": backfillIsOfficial,
}

// UpdateSchema migrates the schema to the current model shapes and then
// applies data migrations.
func (d *DB) UpdateSchema() error {
	for _, m := range []interface{}{
		&models.Company{},
		&models.Employee{},
		&models.Membership{},
		&models.AttendanceEvent{},
		&models.AuditLog{},
	} {
		if err := d.DB.AutoMigrate(m); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(migrations))
	for name := range migrations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Infof("running data migration %q", name)
		if err := migrations[name](d.DB); err != nil {
			return err
		}
	}

	return nil
}

// backfillIsOfficial repairs rows loaded before is_official was derived
// from origin at write time.
func backfillIsOfficial(dbc *gorm.DB) error {
	return dbc.Model(&models.AttendanceEvent{}).
		Where("origin = ? AND is_official = ?", models.OriginOfficialDevice, false).
		Update("is_official", true).Error
}
