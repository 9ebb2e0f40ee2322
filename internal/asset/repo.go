package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

func (r *Repo) Create(ctx context.Context, a *models.Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Kind == "" {
		a.Kind = models.AssetKindScreenshot
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO assets (id, prospect_id, kind, label, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.ProspectID, a.Kind, a.Label, a.URL, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, prospect_id, kind, label, url, created_at
		FROM assets
		WHERE id = ?
	`, id)

	var a models.Asset
	if err := row.Scan(&a.ID, &a.ProspectID, &a.Kind, &a.Label, &a.URL, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &a, nil
}

func (r *Repo) ListByProspect(ctx context.Context, prospectID string) ([]models.Asset, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, prospect_id, kind, label, url, created_at
		FROM assets
		WHERE prospect_id = ?
		ORDER BY created_at ASC, id ASC
	`, prospectID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := []models.Asset{}
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.ProspectID, &a.Kind, &a.Label, &a.URL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assets rows: %w", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete asset rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete asset: %w", database.ErrNotFound)
	}
	return nil
}

func (r *Repo) DeleteByProspect(ctx context.Context, prospectID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM assets WHERE prospect_id = ?`, prospectID); err != nil {
		return fmt.Errorf("delete assets: %w", err)
	}
	return nil
}

func (r *Repo) ProspectSlug(ctx context.Context, prospectID string) (string, error) {
	var s string
	err := r.DB.QueryRowContext(ctx, `SELECT company_slug FROM prospects WHERE id = ?`, prospectID).Scan(&s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", database.ErrNotFound
		}
		return "", fmt.Errorf("prospect slug: %w", err)
	}
	return s, nil
}
