package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadaudit/pkg/database"
	"leadaudit/pkg/models"
)

var ErrEmailTaken = errors.New("email already exists")

type Repo struct {
	DB database.Querier
}

func NewRepo(db database.Querier) *Repo {
	return &Repo{DB: db}
}

const userColumns = `id, email, name, password_hash, token_version, created_at, last_sign_in_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u        models.User
		lastSeen sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.TokenVersion, &u.CreatedAt, &lastSeen); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		u.LastSignInAt = &t
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, token_version, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", ErrEmailTaken)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = ?
	`, normalizeEmail(email))

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get by email: %w", err)
	}
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?
	`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return u, nil
}

func (r *Repo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users rows: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// GetTokenVersion returns database.ErrNotFound for a deleted user so
// their outstanding tokens stop working.
func (r *Repo) GetTokenVersion(ctx context.Context, id string) (int, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT token_version
		FROM users
		WHERE id = ?
	`, id)

	var version int
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, database.ErrNotFound
		}
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

// UserPatch holds the fields an admin may change. Nil fields are kept.
type UserPatch struct {
	Email        *string
	Name         *string
	PasswordHash *string
}

// Update applies p. A new password also bumps the token version.
func (r *Repo) Update(ctx context.Context, id string, p UserPatch) error {
	sets := []string{}
	args := []any{}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, normalizeEmail(*p.Email))
	}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*p.Name))
	}
	if p.PasswordHash != nil {
		sets = append(sets, "password_hash = ?", "token_version = token_version + 1")
		args = append(args, *p.PasswordHash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", ErrEmailTaken)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "update user")
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id string, passwordHash string) error {
	return r.Update(ctx, id, UserPatch{PasswordHash: &passwordHash})
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET token_version = token_version + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	return requireAffected(res, "bump token version")
}

func (r *Repo) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET last_sign_in_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("touch sign in: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "delete user")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrNotFound)
	}
	return nil
}
