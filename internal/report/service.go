package report

import (
	"context"

	"leadaudit/internal/asset"
	"leadaudit/internal/audit"
	"leadaudit/internal/catalog"
	"leadaudit/internal/prospect"
	"leadaudit/pkg/database"
)

type Service struct {
	Prospects   *prospect.Repo
	Audits      *audit.Repo
	Assets      *asset.Repo
	Catalog     *catalog.Catalog
	BaseURL     string
	HashRouting bool
}

func NewService(db database.Querier, baseURL string, hashRouting bool) *Service {
	return &Service{
		Prospects:   prospect.NewRepo(db),
		Audits:      audit.NewRepo(db),
		Assets:      asset.NewRepo(db),
		Catalog:     catalog.Default(),
		BaseURL:     baseURL,
		HashRouting: hashRouting,
	}
}

func (s *Service) URL(slug string) string {
	return PublicURL(s.BaseURL, slug, s.HashRouting)
}

// Render loads everything needed for the report at slug.
func (s *Service) Render(ctx context.Context, slug string) (*Report, error) {
	p, err := s.Prospects.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &Report{State: StateNotFound, Slug: slug}, nil
	}

	a, err := s.Audits.GetByProspect(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return Pending(p, s.URL(slug)), nil
	}

	assets, err := s.Assets.ListByProspect(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return Build(p, a, assets, s.Catalog, s.URL(slug)), nil
}

// IndexEntry is one row of the report index.
type IndexEntry struct {
	ProspectID  string `json:"prospect_id"`
	Slug        string `json:"slug"`
	CompanyName string `json:"company_name"`
	URL         string `json:"url"`
	HasAudit    bool   `json:"has_audit"`
	Score       *int   `json:"score,omitempty"`
}

// Index lists every prospect with its report URL, newest first.
func (s *Service) Index(ctx context.Context) ([]IndexEntry, error) {
	prospects, err := s.Prospects.List(ctx, prospect.ListQuery{})
	if err != nil {
		return nil, err
	}
	audits, err := s.Audits.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]IndexEntry, 0, len(prospects))
	for _, p := range prospects {
		e := IndexEntry{
			ProspectID:  p.ID,
			Slug:        p.CompanySlug,
			CompanyName: p.CompanyName,
			URL:         s.URL(p.CompanySlug),
		}
		if a, ok := audits[p.ID]; ok {
			score := a.Score
			e.HasAudit = true
			e.Score = &score
		}
		out = append(out, e)
	}
	return out, nil
}
