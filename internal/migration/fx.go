package migration

import (
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/smallbiznis/touchbase/internal/seed"
	"github.com/smallbiznis/touchbase/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		log = log.Named("migration")
		if cfg.DBRunMigrations {
			if db.IsPostgres(conn) {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := RunMigrations(sqlDB); err != nil {
					return err
				}
			} else if err := AutoMigrate(conn); err != nil {
				return err
			}
			log.Info("schema up to date", zap.String("dialect", conn.Dialector.Name()))
		}

		if cfg.DBSeedDemo && !cfg.IsProduction() {
			return seed.EnsureDemoOrg(conn, log)
		}
		return nil
	}),
)
