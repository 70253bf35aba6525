// Package testutil opens in-memory databases carrying the service schema.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Schema mirrors the PostgreSQL migrations in SQLite syntax.
const Schema = `
CREATE TABLE profiles (
	id INTEGER PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	default_org_id INTEGER,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE organizations (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE organization_members (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	role TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (org_id, user_id)
);
CREATE TABLE modules (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	steps TEXT NOT NULL DEFAULT '[]',
	published_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	deleted_at DATETIME,
	UNIQUE (org_id, slug)
);
CREATE TABLE module_progress (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	module_id INTEGER NOT NULL,
	current_step INTEGER NOT NULL DEFAULT 0,
	total_steps INTEGER NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	updated_at DATETIME NOT NULL,
	UNIQUE (user_id, module_id)
);
CREATE TABLE step_submissions (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	progress_id INTEGER NOT NULL,
	step_index INTEGER NOT NULL,
	data TEXT,
	submitted_at DATETIME NOT NULL,
	UNIQUE (progress_id, step_index)
);
CREATE TABLE xp_totals (
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	total INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, org_id)
);
CREATE TABLE xp_events (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	action TEXT NOT NULL,
	points INTEGER NOT NULL,
	skill_category TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	created_at DATETIME NOT NULL
);
CREATE TABLE streaks (
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	current_count INTEGER NOT NULL DEFAULT 0,
	longest_count INTEGER NOT NULL DEFAULT 0,
	last_activity_date DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, org_id)
);
CREATE TABLE badges (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	xp_reward INTEGER NOT NULL DEFAULT 0,
	criteria TEXT NOT NULL,
	threshold INTEGER NOT NULL DEFAULT 0,
	milestone_key TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	UNIQUE (org_id, code)
);
CREATE TABLE user_badges (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	badge_id INTEGER NOT NULL,
	awarded_at DATETIME NOT NULL,
	UNIQUE (user_id, badge_id)
);
CREATE TABLE classes (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	teacher_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	archived_at DATETIME
);
CREATE TABLE class_enrollments (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	class_id INTEGER NOT NULL,
	student_id INTEGER NOT NULL,
	joined_at DATETIME NOT NULL,
	UNIQUE (class_id, student_id)
);
CREATE TABLE assignments (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	class_id INTEGER NOT NULL,
	module_id INTEGER,
	title TEXT NOT NULL,
	instructions TEXT NOT NULL DEFAULT '',
	due_at DATETIME,
	max_points INTEGER NOT NULL DEFAULT 100,
	status TEXT NOT NULL,
	created_by INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE assignment_submissions (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	assignment_id INTEGER NOT NULL,
	student_id INTEGER NOT NULL,
	status TEXT NOT NULL,
	content TEXT,
	score INTEGER,
	feedback TEXT NOT NULL DEFAULT '',
	submitted_at DATETIME,
	graded_at DATETIME,
	returned_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (assignment_id, student_id)
);
CREATE TABLE teams (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	sport TEXT NOT NULL DEFAULT '',
	season TEXT NOT NULL DEFAULT '',
	coach_id INTEGER,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (org_id, name, season)
);
CREATE TABLE players (
	id INTEGER PRIMARY KEY,
	org_id INTEGER NOT NULL,
	team_id INTEGER NOT NULL,
	profile_id INTEGER,
	name TEXT NOT NULL,
	jersey_number INTEGER,
	position TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (team_id, jersey_number)
);
`

// OpenDB returns a private in-memory database with the full schema applied.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

// Node returns a snowflake node for generating test ids.
func Node(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// AddMember inserts a membership row directly.
func AddMember(t testing.TB, db *gorm.DB, node *snowflake.Node, orgID, userID snowflake.ID, role string) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		node.Generate(), orgID, userID, role,
	).Error
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}
}
