package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	assignmentdomain "github.com/smallbiznis/touchbase/internal/assignment/domain"
	badgedomain "github.com/smallbiznis/touchbase/internal/badge/domain"
	classroomdomain "github.com/smallbiznis/touchbase/internal/classroom/domain"
	moduledomain "github.com/smallbiznis/touchbase/internal/module/domain"
	organizationdomain "github.com/smallbiznis/touchbase/internal/organization/domain"
	profiledomain "github.com/smallbiznis/touchbase/internal/profile/domain"
	progressdomain "github.com/smallbiznis/touchbase/internal/progress/domain"
	rosterdomain "github.com/smallbiznis/touchbase/internal/roster/domain"
	streakdomain "github.com/smallbiznis/touchbase/internal/streak/domain"
	xpdomain "github.com/smallbiznis/touchbase/internal/xp/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded PostgreSQL schema, including the
// row-level security policies.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&profiledomain.Profile{},
		&organizationdomain.Organization{},
		&organizationdomain.OrganizationMember{},
		&moduledomain.Module{},
		&progressdomain.Progress{},
		&progressdomain.StepSubmission{},
		&xpdomain.Total{},
		&xpdomain.Event{},
		&streakdomain.Record{},
		&badgedomain.Badge{},
		&badgedomain.UserBadge{},
		&classroomdomain.Class{},
		&classroomdomain.Enrollment{},
		&assignmentdomain.Assignment{},
		&assignmentdomain.Submission{},
		&rosterdomain.Team{},
		&rosterdomain.Player{},
	}
}

// AutoMigrate creates the schema from the gorm models for dialects without
// embedded SQL migrations. Row-level security is PostgreSQL only.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
