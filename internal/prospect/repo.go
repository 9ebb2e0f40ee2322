package prospect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadaudit/pkg/database"
	"leadaudit/pkg/models"
)

type Repo struct {
	DB database.Querier
}

func NewRepo(db database.Querier) *Repo {
	return &Repo{DB: db}
}

const prospectColumns = `id, company_name, company_slug, owner_name, email, phone, website,
	instagram, facebook, gmb_url, city, top_opportunities, created_at`

type ListQuery struct {
	Q string // substring of company name, city or owner name
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProspect(row rowScanner) (*models.Prospect, error) {
	var p models.Prospect
	err := row.Scan(&p.ID, &p.CompanyName, &p.CompanySlug, &p.OwnerName, &p.Email, &p.Phone, &p.Website,
		&p.Instagram, &p.Facebook, &p.GMBURL, &p.City, &p.TopOpportunities, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) get(ctx context.Context, where string, arg any) (*models.Prospect, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE `+where+` = ?`, arg)
	p, err := scanProspect(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get prospect: %w", err)
	}
	return p, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Prospect, error) {
	return r.get(ctx, "id", id)
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (*models.Prospect, error) {
	return r.get(ctx, "company_slug", slug)
}

func (r *Repo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM prospects WHERE company_slug = ?`, slug).Scan(&n); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// List returns prospects newest first.
func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Prospect, error) {
	sqlStr, args := buildListSQL(q)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	out := []models.Prospect{}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prospects rows: %w", err)
	}
	return out, nil
}

func buildListSQL(q ListQuery) (string, []any) {
	sqlStr := `SELECT ` + prospectColumns + ` FROM prospects`
	var args []any

	if kw := strings.ToLower(strings.TrimSpace(q.Q)); kw != "" {
		sqlStr += ` WHERE (LOWER(company_name) LIKE ? OR LOWER(city) LIKE ? OR LOWER(owner_name) LIKE ?)`
		like := "%" + kw + "%"
		args = append(args, like, like, like)
	}

	sqlStr += ` ORDER BY created_at DESC, id DESC`
	return sqlStr, args
}

func (r *Repo) Create(ctx context.Context, p *models.Prospect) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO prospects (`+prospectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CompanyName, p.CompanySlug, p.OwnerName, p.Email, p.Phone, p.Website,
		p.Instagram, p.Facebook, p.GMBURL, p.City, p.TopOpportunities, p.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create prospect: %w", ErrSlugTaken)
		}
		return fmt.Errorf("create prospect: %w", err)
	}
	return nil
}

// Update writes the non-nil fields of patch. The slug column is never
// touched here.
func (r *Repo) Update(ctx context.Context, id string, patch models.ProspectPatch) error {
	fields := []struct {
		col string
		val *string
	}{
		{"company_name", patch.CompanyName},
		{"owner_name", patch.OwnerName},
		{"email", patch.Email},
		{"phone", patch.Phone},
		{"website", patch.Website},
		{"instagram", patch.Instagram},
		{"facebook", patch.Facebook},
		{"gmb_url", patch.GMBURL},
		{"city", patch.City},
		{"top_opportunities", patch.TopOpportunities},
	}

	var sets []string
	var args []any
	for _, f := range fields {
		if f.val != nil {
			sets = append(sets, f.col+" = ?")
			args = append(args, *f.val)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, `UPDATE prospects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update prospect: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update prospect rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update prospect: %w", database.ErrNotFound)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM prospects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prospect: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prospect rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete prospect: %w", database.ErrNotFound)
	}
	return nil
}
