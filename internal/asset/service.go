// Package asset uploads screenshots to the blob store and records them
// against prospects.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadaudit/internal/slug"
	"leadaudit/internal/storage"
	"leadaudit/pkg/database"
	"leadaudit/pkg/logger"
	"leadaudit/pkg/models"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrUnsupportedType = errors.New("unsupported file type: must be jpeg, png, gif or webp")
	ErrTooLarge        = errors.New("file too large")
	ErrBadSlug         = errors.New("invalid company_slug")
	ErrSlugMismatch    = errors.New("company_slug does not match prospect")
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type UploadInput struct {
	ProspectID  string
	CompanySlug string
	Label       string
	Kind        string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	Repo     *Repo
	Blobs    storage.BlobStore
	MaxBytes int64
	Now      func() time.Time
}

func NewService(repo *Repo, blobs storage.BlobStore, maxBytes int64) *Service {
	return &Service{Repo: repo, Blobs: blobs, MaxBytes: maxBytes, Now: time.Now}
}

// ObjectKey builds "<slug>/<unix-millis>_<label>.<ext>".
func ObjectKey(companySlug, label, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s.%s", companySlug, at.UnixMilli(), keySafe(label), ext)
}

func keySafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, s)
}

// contentType resolves the declared type, falling back to the file
// extension when none was declared, and returns the extension to store under.
func contentType(declared, filename string) (string, string, bool) {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	}
	ext, ok := allowedTypes[ct]
	if !ok {
		return "", "", false
	}
	return ct, ext, true
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Asset, error) {
	in.ProspectID = strings.TrimSpace(in.ProspectID)
	in.CompanySlug = strings.TrimSpace(in.CompanySlug)
	in.Label = strings.TrimSpace(in.Label)
	if in.Body == nil || in.ProspectID == "" || in.CompanySlug == "" || in.Label == "" {
		return nil, ErrMissingFields
	}
	if in.Kind == "" {
		in.Kind = models.AssetKindScreenshot
	}
	if !slug.Valid(in.CompanySlug) {
		return nil, ErrBadSlug
	}
	if s.MaxBytes > 0 && in.Size > s.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, in.Size, s.MaxBytes)
	}
	ct, ext, ok := contentType(in.ContentType, in.Filename)
	if !ok {
		return nil, ErrUnsupportedType
	}

	current, err := s.Repo.ProspectSlug(ctx, in.ProspectID)
	if err != nil {
		return nil, err
	}
	if current != in.CompanySlug {
		return nil, ErrSlugMismatch
	}

	key := ObjectKey(in.CompanySlug, in.Label, ext, s.Now())
	if err := s.Blobs.Put(ctx, key, in.Body, in.Size, ct); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	a := &models.Asset{
		ProspectID: in.ProspectID,
		Kind:       in.Kind,
		Label:      in.Label,
		URL:        s.Blobs.PublicURL(key),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if rerr := s.Blobs.Remove(ctx, key); rerr != nil {
			logger.WithContext(ctx).Warn("remove orphaned blob", zap.String("key", key), zap.Error(rerr))
		}
		return nil, err
	}
	return a, nil
}

// Delete removes the asset's blob, then its row. Blob failures are logged
// and do not stop the row delete.
func (s *Service) Delete(ctx context.Context, id string) (*models.Asset, error) {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("delete asset %s: %w", id, database.ErrNotFound)
	}

	s.RemoveBlobs(ctx, []models.Asset{*a})

	if err := s.Repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveBlobs deletes the stored object behind each asset, logging and
// counting failures instead of returning them.
func (s *Service) RemoveBlobs(ctx context.Context, assets []models.Asset) int {
	failed := 0
	log := logger.WithContext(ctx)
	for _, a := range assets {
		key, ok := s.Blobs.KeyFromURL(a.URL)
		if !ok {
			log.Warn("asset url outside bucket", zap.String("asset_id", a.ID), zap.String("url", a.URL))
			failed++
			continue
		}
		if err := s.Blobs.Remove(ctx, key); err != nil {
			log.Warn("remove blob", zap.String("asset_id", a.ID), zap.String("key", key), zap.Error(err))
			failed++
		}
	}
	return failed
}
