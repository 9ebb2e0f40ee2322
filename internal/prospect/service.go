// Package prospect manages prospect records: creation with a unique slug,
// partial updates and the cascade delete of audits and screenshots.
package prospect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadaudit/internal/asset"
	"leadaudit/internal/audit"
	"leadaudit/internal/slug"
	"leadaudit/pkg/database"
	"leadaudit/pkg/logger"
	"leadaudit/pkg/models"
)

var (
	ErrNameRequired  = errors.New("company_name is required")
	ErrNameNoSlug    = errors.New("company_name must contain at least one letter or digit")
	ErrInvalidSlug   = errors.New("company_slug may only contain a-z, 0-9 and single hyphens")
	ErrSlugTaken     = errors.New("company_slug already exists")
	ErrSlugImmutable = errors.New("company_slug cannot be changed after creation")
)

type Service struct {
	DB              *database.DB
	Prospects       *Repo
	Audits          *audit.Repo
	Assets          *asset.Service
	MaxSlugAttempts int
}

func NewService(db *database.DB, assets *asset.Service, maxSlugAttempts int) *Service {
	return &Service{
		DB:              db,
		Prospects:       NewRepo(db),
		Audits:          audit.NewRepo(db),
		Assets:          assets,
		MaxSlugAttempts: maxSlugAttempts,
	}
}

// Details is a prospect with its audit (nil until published) and assets.
type Details struct {
	Prospect *models.Prospect `json:"prospect"`
	Audit    *models.Audit    `json:"audit"`
	Assets   []models.Asset   `json:"assets"`
}

func trimProspect(p *models.Prospect) {
	for _, f := range []*string{
		&p.CompanyName, &p.CompanySlug, &p.OwnerName, &p.Email, &p.Phone, &p.Website,
		&p.Instagram, &p.Facebook, &p.GMBURL, &p.City,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Create stores a new prospect. A supplied slug must be well-formed and
// free; otherwise one is derived from the company name.
func (s *Service) Create(ctx context.Context, in models.Prospect) (*models.Prospect, error) {
	trimProspect(&in)
	if in.CompanyName == "" {
		return nil, ErrNameRequired
	}

	if in.CompanySlug != "" {
		if !slug.Valid(in.CompanySlug) {
			return nil, ErrInvalidSlug
		}
		taken, err := s.Prospects.SlugExists(ctx, in.CompanySlug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlugTaken
		}
	} else {
		base := slug.Make(in.CompanyName)
		if base == "" {
			return nil, ErrNameNoSlug
		}
		free, err := slug.GenerateUnique(ctx, base, s.Prospects.SlugExists, s.MaxSlugAttempts)
		if err != nil {
			return nil, err
		}
		in.CompanySlug = free
	}

	in.ID, in.CreatedAt = "", time.Time{}
	if err := s.Prospects.Create(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *Service) Update(ctx context.Context, id string, patch models.ProspectPatch) (*models.Prospect, error) {
	current, err := s.Prospects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("update prospect %s: %w", id, database.ErrNotFound)
	}

	if patch.CompanySlug != nil && strings.TrimSpace(*patch.CompanySlug) != current.CompanySlug {
		return nil, ErrSlugImmutable
	}
	if patch.CompanyName != nil {
		name := strings.TrimSpace(*patch.CompanyName)
		if name == "" {
			return nil, ErrNameRequired
		}
		patch.CompanyName = &name
	}

	if !patch.Empty() {
		if err := s.Prospects.Update(ctx, id, patch); err != nil {
			return nil, err
		}
	}
	return s.Prospects.GetByID(ctx, id)
}

func (s *Service) Details(ctx context.Context, p *models.Prospect) (*Details, error) {
	a, err := s.Audits.GetByProspect(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	assets, err := s.Assets.Repo.ListByProspect(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &Details{Prospect: p, Audit: a, Assets: assets}, nil
}

// Delete removes the prospect's blobs (failures are logged), then its
// asset rows, audit and the prospect itself in one transaction. It
// returns the deleted prospect.
func (s *Service) Delete(ctx context.Context, id string) (*models.Prospect, error) {
	p, err := s.Prospects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("delete prospect %s: %w", id, database.ErrNotFound)
	}

	assets, err := s.Assets.Repo.ListByProspect(ctx, id)
	if err != nil {
		return nil, err
	}
	failed := s.Assets.RemoveBlobs(ctx, assets)

	err = s.DB.WithTx(ctx, func(tx *database.Tx) error {
		if err := asset.NewRepo(tx).DeleteByProspect(ctx, id); err != nil {
			return err
		}
		if err := audit.NewRepo(tx).DeleteByProspect(ctx, id); err != nil {
			return err
		}
		return NewRepo(tx).Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("deleted prospect and related data",
		zap.String("prospect_id", id),
		zap.String("company_name", p.CompanyName),
		zap.Int("assets", len(assets)),
		zap.Int("blob_failures", failed),
	)
	return p, nil
}
