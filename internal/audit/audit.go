// Package audit stores the single current audit of each prospect.
package audit

import (
	"fmt"
	"strings"

	"leadaudit/internal/scoring"
	"leadaudit/pkg/models"
)

// Normalize validates ratings, clamps score overrides and recomputes the
// coarse score. Empty ratings become fail.
func Normalize(a *models.Audit) error {
	var err error
	a.Findings.Each(func(c models.Category, fd *models.Finding) {
		if err != nil {
			return
		}
		r, perr := models.ParseRating(string(fd.Rating))
		if perr != nil {
			err = fmt.Errorf("%s: %w", c, perr)
			return
		}
		fd.Rating = r
		if fd.Score != nil {
			v := scoring.Category(*fd)
			fd.Score = &v
		}
	})
	if err != nil {
		return err
	}

	a.Notes = strings.TrimSpace(a.Notes)
	a.CompletedBy = strings.TrimSpace(a.CompletedBy)
	a.Score = scoring.Coarse(a.Findings)

	if err := checkRange("potential_leads", a.PotentialLeadsMin, a.PotentialLeadsMax); err != nil {
		return err
	}
	return checkRange("potential_revenue", a.PotentialRevenueMin, a.PotentialRevenueMax)
}

func checkRange(name string, lo, hi *int) error {
	if lo != nil && *lo < 0 || hi != nil && *hi < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%s_min must not exceed %s_max", name, name)
	}
	return nil
}
