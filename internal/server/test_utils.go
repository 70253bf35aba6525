package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// tenantTables are cleared child-first so foreign keys never block the delete.
var tenantTables = []string{
	"step_submissions",
	"module_progress",
	"assignment_submissions",
	"assignments",
	"class_enrollments",
	"classes",
	"players",
	"teams",
	"modules",
	"user_badges",
	"badges",
	"streaks",
	"xp_events",
	"xp_totals",
	"organization_members",
}

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes organizations and profiles created by end-to-end runs.
// Only registered outside production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}
	like := prefix + "%"

	var removedOrgs, removedProfiles int
	err := s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var orgIDs []int64
		if err := tx.Table("organizations").Select("id").Where("name LIKE ?", like).Scan(&orgIDs).Error; err != nil {
			return err
		}
		if len(orgIDs) > 0 {
			for _, table := range tenantTables {
				if err := tx.Exec("DELETE FROM "+table+" WHERE org_id IN ?", orgIDs).Error; err != nil {
					return err
				}
			}
			if err := tx.Exec(`UPDATE profiles SET default_org_id = NULL WHERE default_org_id IN ?`, orgIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec(`DELETE FROM organizations WHERE id IN ?`, orgIDs).Error; err != nil {
				return err
			}
		}
		removedOrgs = len(orgIDs)

		var userIDs []int64
		if err := tx.Table("profiles").Select("id").Where("external_id LIKE ?", like).Scan(&userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) > 0 {
			if err := tx.Exec(`DELETE FROM organization_members WHERE user_id IN ?`, userIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec(`DELETE FROM profiles WHERE id IN ?`, userIDs).Error; err != nil {
				return err
			}
		}
		removedProfiles = len(userIDs)
		return nil
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"removed_orgs":     removedOrgs,
		"removed_profiles": removedProfiles,
	})
}
