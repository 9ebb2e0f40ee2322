package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadaudit/internal/asset"
	"leadaudit/internal/audit"
	"leadaudit/internal/prospect"
	"leadaudit/internal/report"
	"leadaudit/pkg/database"
	"leadaudit/pkg/logger"
	"leadaudit/pkg/models"
)

var (
	ErrProspectRequired = errors.New("prospect_id is required")
	ErrInvalidAudit     = errors.New("invalid audit")
)

type Service struct {
	DB        *database.DB
	Prospects *prospect.Repo
	Audits    *audit.Repo
	Assets    *asset.Repo
	Reports   *report.Service
	Now       func() time.Time
}

func NewService(db *database.DB, reports *report.Service) *Service {
	return &Service{
		DB:        db,
		Prospects: prospect.NewRepo(db),
		Audits:    audit.NewRepo(db),
		Assets:    asset.NewRepo(db),
		Reports:   reports,
		Now:       time.Now,
	}
}

// Load returns the draft for prospectID, or database.ErrNotFound.
func (s *Service) Load(ctx context.Context, prospectID string) (*Draft, error) {
	p, err := s.Prospects.GetByID(ctx, prospectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("load draft %s: %w", prospectID, database.ErrNotFound)
	}
	a, err := s.Audits.GetByProspect(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	assets, err := s.Assets.ListByProspect(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return NewDraft(p, a, assets), nil
}

type PublishInput struct {
	Audit models.Audit
	// TopOpportunities replaces the prospect's opportunities text when set.
	TopOpportunities *string
}

type Published struct {
	Audit     *models.Audit    `json:"audit"`
	Prospect  *models.Prospect `json:"prospect"`
	PublicURL string           `json:"public_url"`
}

// Publish stores the prospect's opportunities and its audit in one
// transaction. completed_by defaults to author.
func (s *Service) Publish(ctx context.Context, in PublishInput, author string) (*Published, error) {
	a := in.Audit
	a.ProspectID = strings.TrimSpace(a.ProspectID)
	if a.ProspectID == "" {
		return nil, ErrProspectRequired
	}
	if err := audit.Normalize(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudit, err)
	}
	if a.CompletedBy == "" {
		a.CompletedBy = strings.TrimSpace(author)
	}
	a.ID = ""
	a.CompletedAt = s.Now().UTC()

	var p *models.Prospect
	err := s.DB.WithTx(ctx, func(tx *database.Tx) error {
		prospects := prospect.NewRepo(tx)
		var err error
		if p, err = prospects.GetByID(ctx, a.ProspectID); err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("publish audit %s: %w", a.ProspectID, database.ErrNotFound)
		}
		if in.TopOpportunities != nil {
			top := strings.TrimSpace(*in.TopOpportunities)
			if err := prospects.Update(ctx, p.ID, models.ProspectPatch{TopOpportunities: &top}); err != nil {
				return err
			}
			p.TopOpportunities = top
		}
		return audit.NewRepo(tx).Upsert(ctx, &a)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("published audit",
		zap.String("prospect_id", p.ID),
		zap.String("slug", p.CompanySlug),
		zap.Int("score", a.Score),
	)
	return &Published{Audit: &a, Prospect: p, PublicURL: s.Reports.URL(p.CompanySlug)}, nil
}
