package database

import (
	"strings"
	"time"

	"github.com/princeprakhar/yamdb-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the store behind databaseURL and migrates the schema.
// "sqlite:" URLs (and bare ":memory:") select the embedded driver, which
// is used for local runs and tests; everything else goes to postgres.
func Init(databaseURL string) (*gorm.DB, error) {
	return open(databaseURL, logger.Default.LogMode(logger.Warn))
}

// InitSilent is Init without SQL logging.
func InitSilent(databaseURL string) (*gorm.DB, error) {
	return open(databaseURL, logger.Default.LogMode(logger.Silent))
}

func open(databaseURL string, log logger.Interface) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: log,
		// Unique and foreign key violations surface as gorm.ErrDuplicatedKey
		// and gorm.ErrForeignKeyViolated regardless of driver.
		TranslateError: true,
	}

	dsn, isSQLite := sqliteDSN(databaseURL)

	var dialector gorm.Dialector
	if isSQLite {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// One writer at a time; an in-memory database also lives and dies
		// with its single connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	// Auto migrate schemas
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func sqliteDSN(databaseURL string) (string, bool) {
	switch {
	case databaseURL == ":memory:":
		return "file::memory:?_foreign_keys=on", true
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return withForeignKeys(strings.TrimPrefix(databaseURL, "sqlite://")), true
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return withForeignKeys(strings.TrimPrefix(databaseURL, "sqlite:")), true
	}
	return "", false
}

// withForeignKeys turns on FK enforcement, which sqlite leaves off by
// default; cascade and set-null deletes depend on it.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
