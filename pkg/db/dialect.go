package db

import (
	"fmt"

	"github.com/smallbiznis/touchbase/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case DialectMySQL:
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)), nil
	case DialectPostgres:
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
		)), nil
	case DialectSQLite:
		return sqlite.Open(cfg.DBPath), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.DBType)
	}
}

// IsPostgres reports whether the handle talks to PostgreSQL.
func IsPostgres(conn *gorm.DB) bool {
	return conn != nil && conn.Dialector != nil && conn.Dialector.Name() == DialectPostgres
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is understood by the dialect.
func SupportsRowLocks(conn *gorm.DB) bool {
	if conn == nil || conn.Dialector == nil {
		return false
	}
	switch conn.Dialector.Name() {
	case DialectPostgres, DialectMySQL:
		return true
	default:
		return false
	}
}
