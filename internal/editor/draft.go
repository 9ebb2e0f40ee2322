// Package editor loads a prospect's audit for editing and publishes it.
package editor

import (
	"fmt"
	"strings"

	"leadaudit/internal/catalog"
	"leadaudit/internal/scoring"
	"leadaudit/pkg/models"
)

// Draft is the editable state of one prospect's audit. Categories without
// a stored audit start as fail with empty notes.
type Draft struct {
	Prospect    *models.Prospect          `json:"prospect"`
	Published   bool                      `json:"published"`
	Audit       models.Audit              `json:"audit"`
	Screenshots map[string][]models.Asset `json:"screenshots"`
}

// Preview is the live score shown while editing.
type Preview struct {
	Coarse      int    `json:"coarse"`
	CoarseLabel string `json:"coarse_label"`
	Overall     int    `json:"overall"`
	Band        string `json:"band"`
}

// CategoryView is one editor row.
type CategoryView struct {
	Key         models.Category `json:"key"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Rating      models.Rating   `json:"rating"`
	Notes       string          `json:"notes"`
	Score       *int            `json:"score,omitempty"`
	Screenshots []models.Asset  `json:"screenshots"`
}

// NewDraft builds a draft from stored state. A nil audit starts every
// category at fail.
func NewDraft(p *models.Prospect, a *models.Audit, assets []models.Asset) *Draft {
	d := &Draft{Prospect: p, Screenshots: make(map[string][]models.Asset)}
	if a != nil {
		d.Audit = *a
		d.Published = true
		d.Audit.Findings.Each(func(_ models.Category, fd *models.Finding) {
			fd.Rating = fd.Rating.OrFail()
		})
	} else {
		d.Audit = models.Audit{ProspectID: p.ID, Findings: models.DefaultFindings()}
	}
	for _, as := range assets {
		d.AddScreenshot(as)
	}
	return d
}

func (d *Draft) finding(c models.Category) (*models.Finding, error) {
	fd := d.Audit.Findings.Lookup(c)
	if fd == nil {
		return nil, fmt.Errorf("unknown category %q", c)
	}
	return fd, nil
}

func (d *Draft) SetRating(c models.Category, rating string) error {
	fd, err := d.finding(c)
	if err != nil {
		return err
	}
	r, err := models.ParseRating(rating)
	if err != nil {
		return err
	}
	fd.Rating = r
	return nil
}

func (d *Draft) SetNotes(c models.Category, notes string) error {
	fd, err := d.finding(c)
	if err != nil {
		return err
	}
	fd.Notes = strings.TrimSpace(notes)
	return nil
}

// SetScore sets or, with nil, clears the explicit 0-100 score of c.
func (d *Draft) SetScore(c models.Category, score *int) error {
	fd, err := d.finding(c)
	if err != nil {
		return err
	}
	fd.Score = score
	return nil
}

func (d *Draft) AddScreenshot(a models.Asset) {
	d.Screenshots[a.Label] = append(d.Screenshots[a.Label], a)
}

// RemoveScreenshot drops the screenshot with id and reports whether it was
// present.
func (d *Draft) RemoveScreenshot(id string) bool {
	for label, list := range d.Screenshots {
		for i, a := range list {
			if a.ID != id {
				continue
			}
			list = append(list[:i:i], list[i+1:]...)
			if len(list) == 0 {
				delete(d.Screenshots, label)
			} else {
				d.Screenshots[label] = list
			}
			return true
		}
	}
	return false
}

func (d *Draft) Score() Preview {
	coarse := scoring.Coarse(d.Audit.Findings)
	overall := scoring.Overall(d.Audit.Findings)
	return Preview{
		Coarse:      coarse,
		CoarseLabel: scoring.CoarseLabel(coarse),
		Overall:     overall,
		Band:        scoring.Band(overall),
	}
}

// Categories returns the ten editor rows in report order.
func (d *Draft) Categories(cat *catalog.Catalog) []CategoryView {
	out := make([]CategoryView, 0, len(models.Categories))
	d.Audit.Findings.Each(func(c models.Category, fd *models.Finding) {
		entry, _ := cat.Get(c)
		shots := d.Screenshots[string(c)]
		if shots == nil {
			shots = []models.Asset{}
		}
		out = append(out, CategoryView{
			Key:         c,
			Label:       cat.Label(c),
			Description: entry.Description,
			Rating:      fd.Rating,
			Notes:       fd.Notes,
			Score:       fd.Score,
			Screenshots: shots,
		})
	})
	return out
}

// Input converts the draft into a publish request.
func (d *Draft) Input() PublishInput {
	a := d.Audit
	a.ProspectID = d.Prospect.ID
	top := d.Prospect.TopOpportunities
	return PublishInput{Audit: a, TopOpportunities: &top}
}
