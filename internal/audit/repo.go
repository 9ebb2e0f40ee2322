package audit

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

// categoryColumns lists rating, notes and score columns for every category.
var categoryColumns = func() []string {
	cols := make([]string, 0, len(models.Categories)*3)
	for _, c := range models.Categories {
		cols = append(cols, string(c), string(c)+"_notes", string(c)+"_score")
	}
	return cols
}()

var auditColumns = append(append([]string{"id", "prospect_id"}, categoryColumns...),
	"notes", "completed_by", "completed_at", "score",
	"potential_leads_min", "potential_leads_max", "potential_revenue_min", "potential_revenue_max",
)

var selectAudit = `SELECT ` + strings.Join(auditColumns, ", ") + ` FROM audits`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudit(row rowScanner) (*models.Audit, error) {
	var (
		a        models.Audit
		ratings  = make([]string, len(models.Categories))
		scores   = make([]sql.NullInt64, len(models.Categories))
		projects [4]sql.NullInt64
	)

	dest := []any{&a.ID, &a.ProspectID}
	i := 0
	a.Findings.Each(func(_ models.Category, fd *models.Finding) {
		dest = append(dest, &ratings[i], &fd.Notes, &scores[i])
		i++
	})
	dest = append(dest, &a.Notes, &a.CompletedBy, &a.CompletedAt, &a.Score,
		&projects[0], &projects[1], &projects[2], &projects[3])

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	i = 0
	a.Findings.Each(func(_ models.Category, fd *models.Finding) {
		fd.Rating = models.Rating(ratings[i]).OrFail()
		fd.Score = intPtr(scores[i])
		i++
	})
	a.PotentialLeadsMin = intPtr(projects[0])
	a.PotentialLeadsMax = intPtr(projects[1])
	a.PotentialRevenueMin = intPtr(projects[2])
	a.PotentialRevenueMax = intPtr(projects[3])
	return &a, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *Repo) GetByProspect(ctx context.Context, prospectID string) (*models.Audit, error) {
	row := r.DB.QueryRowContext(ctx, selectAudit+` WHERE prospect_id = ?`, prospectID)
	a, err := scanAudit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit: %w", err)
	}
	return a, nil
}

// Upsert writes a as the prospect's only audit. An existing row keeps its
// id; a.ID is set to the stored id.
func (r *Repo) Upsert(ctx context.Context, a *models.Audit) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now().UTC()
	}

	args := []any{a.ID, a.ProspectID}
	a.Findings.Each(func(_ models.Category, fd *models.Finding) {
		args = append(args, string(fd.Rating.OrFail()), fd.Notes, nullInt(fd.Score))
	})
	args = append(args, a.Notes, a.CompletedBy, a.CompletedAt, a.Score,
		nullInt(a.PotentialLeadsMin), nullInt(a.PotentialLeadsMax),
		nullInt(a.PotentialRevenueMin), nullInt(a.PotentialRevenueMax))

	updates := make([]string, 0, len(auditColumns)-2)
	for _, col := range auditColumns[2:] {
		updates = append(updates, col+" = excluded."+col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(auditColumns)), ", ")

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audits (`+strings.Join(auditColumns, ", ")+`)
		VALUES (`+placeholders+`)
		ON CONFLICT(prospect_id) DO UPDATE SET `+strings.Join(updates, ", "), args...)
	if err != nil {
		return fmt.Errorf("upsert audit: %w", err)
	}

	if err := r.DB.QueryRowContext(ctx, `SELECT id FROM audits WHERE prospect_id = ?`, a.ProspectID).Scan(&a.ID); err != nil {
		return fmt.Errorf("upsert audit id: %w", err)
	}
	return nil
}

func (r *Repo) DeleteByProspect(ctx context.Context, prospectID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM audits WHERE prospect_id = ?`, prospectID); err != nil {
		return fmt.Errorf("delete audit: %w", err)
	}
	return nil
}

// ListAll returns every audit keyed by prospect id.
func (r *Repo) ListAll(ctx context.Context) (map[string]*models.Audit, error) {
	rows, err := r.DB.QueryContext(ctx, selectAudit)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	out := map[string]*models.Audit{}
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		out[a.ProspectID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audits rows: %w", err)
	}
	return out, nil
}
