// Package scoring turns audit ratings into the coarse 0-10 score stored on
// the audit and the fine 0-100 scores shown on reports.
package scoring

import (
	"math"

	"leadaudit/pkg/models"
)

const (
	PassScore    = 100
	WarningScore = 50
	FailScore    = 20
)

// Coarse counts pass ratings.
func Coarse(f models.Findings) int {
	n := 0
	f.Each(func(_ models.Category, fd *models.Finding) {
		if fd.Rating == models.RatingPass {
			n++
		}
	})
	return n
}

// Category returns the explicit score clamped to 0-100 when set, otherwise
// the default for the rating. Unknown ratings count as fail.
func Category(fd models.Finding) int {
	if fd.Score != nil {
		return clamp(*fd.Score, 0, 100)
	}
	switch fd.Rating.OrFail() {
	case models.RatingPass:
		return PassScore
	case models.RatingWarning:
		return WarningScore
	default:
		return FailScore
	}
}

// Overall is the rounded mean of the ten category scores.
func Overall(f models.Findings) int {
	total, n := 0, 0
	f.Each(func(_ models.Category, fd *models.Finding) {
		total += Category(*fd)
		n++
	})
	return int(math.Round(float64(total) / float64(n)))
}

// Band returns the message shown next to the overall score.
func Band(overall int) string {
	if overall >= 75 {
		return "Strong marketing foundation. The opportunities below are the fastest way to grow from here."
	}
	return "There's significant room for improvement. Most of our clients score 75+ after implementing our recommendations."
}

// CoarseLabel is the editor badge for a coarse score.
func CoarseLabel(coarse int) string {
	switch {
	case coarse >= 7:
		return "Strong"
	case coarse >= 4:
		return "Needs Work"
	default:
		return "Critical"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
