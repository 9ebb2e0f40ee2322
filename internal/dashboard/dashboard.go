// Package dashboard is the admin view over the prospect list: loading,
// filtering, creating and deleting prospects through the API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"leadaudit/internal/client"
	"leadaudit/internal/httperr"
	"leadaudit/internal/slug"
	"leadaudit/pkg/models"
)

type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateNeedsSetup State = "needs-setup"
	StateError      State = "error"
)

var (
	ErrNameRequired = errors.New("company name is required")
	ErrNameNoSlug   = errors.New("company name must contain at least one letter or digit")
)

// API is the part of the HTTP client the dashboard drives.
type API interface {
	ListProspects(ctx context.Context, q string) ([]models.Prospect, error)
	CheckSlug(ctx context.Context, slug string) (bool, error)
	CreateProspect(ctx context.Context, p models.Prospect) (*models.Prospect, error)
	DeleteProspect(ctx context.Context, id string) (*models.Prospect, error)
}

var _ API = (*client.Client)(nil)

// Confirm is asked before a delete. Returning false cancels it.
type Confirm func(prompt string) bool

type Dashboard struct {
	api             API
	MaxSlugAttempts int

	mu        sync.Mutex
	state     State
	prospects []models.Prospect
	err       error
}

func New(api API) *Dashboard {
	return &Dashboard{api: api, MaxSlugAttempts: slug.DefaultMaxAttempts, state: StateLoading}
}

func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err is the error behind StateError or StateNeedsSetup.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Prospects returns the loaded list, newest first.
func (d *Dashboard) Prospects() []models.Prospect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Prospect(nil), d.prospects...)
}

// Load fetches the prospect list. A missing schema moves the dashboard to
// needs-setup instead of failing.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.state = StateLoading
	d.mu.Unlock()

	items, err := d.api.ListProspects(ctx, "")

	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
	switch {
	case err == nil:
		d.state = StateReady
		d.prospects = items
		return nil
	case client.Code(err) == httperr.CodeSchemaMissing:
		d.state = StateNeedsSetup
		d.prospects = nil
		return nil
	default:
		d.state = StateError
		return err
	}
}

// Filter returns the loaded prospects whose company name, city or owner
// name contains query, ignoring case.
func (d *Dashboard) Filter(query string) []models.Prospect {
	all := d.Prospects()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]models.Prospect, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.CompanyName), q) ||
			strings.Contains(strings.ToLower(p.City), q) ||
			strings.Contains(strings.ToLower(p.OwnerName), q) {
			out = append(out, p)
		}
	}
	return out
}

// Create derives a free slug from the company name, stores the prospect
// and reloads the list.
func (d *Dashboard) Create(ctx context.Context, in models.Prospect) (*models.Prospect, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.CompanyName == "" {
		return nil, ErrNameRequired
	}
	base := slug.Make(in.CompanyName)
	if base == "" {
		return nil, ErrNameNoSlug
	}
	free, err := slug.GenerateUnique(ctx, base, d.api.CheckSlug, d.MaxSlugAttempts)
	if err != nil {
		return nil, err
	}
	in.CompanySlug = free

	p, err := d.api.CreateProspect(ctx, in)
	if err != nil {
		return nil, err
	}
	return p, d.Load(ctx)
}

// DeletePrompt describes what deleting p removes.
func DeletePrompt(p models.Prospect) string {
	return fmt.Sprintf("Delete %s? This permanently removes the prospect, its audit and all uploaded screenshots.", p.CompanyName)
}

// Delete asks confirm, deletes the prospect with everything attached and
// reloads. It reports whether the delete happened.
func (d *Dashboard) Delete(ctx context.Context, id string, confirm Confirm) (bool, error) {
	var target *models.Prospect
	for _, p := range d.Prospects() {
		if p.ID == id {
			target = &p
			break
		}
	}
	if target == nil {
		return false, fmt.Errorf("prospect %s is not loaded", id)
	}
	if confirm != nil && !confirm(DeletePrompt(*target)) {
		return false, nil
	}
	if _, err := d.api.DeleteProspect(ctx, id); err != nil {
		return false, err
	}
	return true, d.Load(ctx)
}
