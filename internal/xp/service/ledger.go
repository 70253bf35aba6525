package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/touchbase/internal/xp/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger writes balance increments and their audit events.
type Ledger struct {
	repo  domain.Repository
	genID *snowflake.Node
}

func NewLedger(repo domain.Repository, genID *snowflake.Node) *Ledger {
	return &Ledger{repo: repo, genID: genID}
}

// ProvideCrediter exposes the ledger to packages that must not trigger badge evaluation.
func ProvideCrediter(l *Ledger) domain.Crediter {
	return l
}

func (l *Ledger) Credit(ctx context.Context, tx *gorm.DB, req domain.CreditRequest) error {
	if req.OrgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if req.UserID == 0 {
		return domain.ErrInvalidUser
	}
	if req.Points <= 0 {
		return domain.ErrInvalidPoints
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return domain.ErrInvalidAction
	}
	metadata, err := opaqueJSON(req.Metadata)
	if err != nil {
		return err
	}
	_, err = l.apply(ctx, tx, req.OrgID, req.UserID, source, "", req.Points, metadata, time.Now().UTC())
	return err
}

// apply increments the total, appends the event and reads the stored total back, all on tx.
func (l *Ledger) apply(ctx context.Context, tx *gorm.DB, orgID, userID snowflake.ID, action, category string, points int64, metadata datatypes.JSON, now time.Time) (int64, error) {
	repo := l.repo.WithTx(tx)
	if err := repo.Increment(ctx, orgID, userID, points, now); err != nil {
		return 0, err
	}
	if err := repo.InsertEvent(ctx, domain.Event{
		ID:            l.genID.Generate(),
		OrgID:         orgID,
		UserID:        userID,
		Action:        action,
		Points:        points,
		SkillCategory: category,
		Metadata:      metadata,
		CreatedAt:     now,
	}); err != nil {
		return 0, err
	}
	return repo.GetTotal(ctx, orgID, userID)
}

func opaqueJSON(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, domain.ErrInvalidMetadata
	}
	return datatypes.JSON(trimmed), nil
}
