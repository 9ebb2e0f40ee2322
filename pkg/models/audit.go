package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Rating is the outcome recorded for one audit category.
type Rating string

const (
	RatingPass    Rating = "pass"
	RatingWarning Rating = "warning"
	RatingFail    Rating = "fail"
)

// ParseRating accepts the three known values case-insensitively.
// An empty string parses as RatingFail.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return RatingPass, nil
	case "warning":
		return RatingWarning, nil
	case "fail", "":
		return RatingFail, nil
	default:
		return "", fmt.Errorf("invalid rating %q: must be one of pass, warning, fail", s)
	}
}

// OrFail maps anything unknown to RatingFail.
func (r Rating) OrFail() Rating {
	switch r {
	case RatingPass, RatingWarning:
		return r
	default:
		return RatingFail
	}
}

// Category is the key of one of the ten fixed audit dimensions.
type Category string

const (
	CategoryWebsiteUX       Category = "website_ux"
	CategoryOffer           Category = "offer"
	CategoryFacebookAds     Category = "facebook_ads"
	CategoryGoogleAds       Category = "google_ads"
	CategorySocialMedia     Category = "social_media"
	CategoryReviews         Category = "reviews"
	CategoryGMBOptimization Category = "gmb_optimization"
	CategoryTracking        Category = "tracking"
	CategoryRetargeting     Category = "retargeting"
	CategoryFollowUp        Category = "follow_up"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryWebsiteUX,
	CategoryOffer,
	CategoryFacebookAds,
	CategoryGoogleAds,
	CategorySocialMedia,
	CategoryReviews,
	CategoryGMBOptimization,
	CategoryTracking,
	CategoryRetargeting,
	CategoryFollowUp,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Finding is the rating, notes and optional explicit 0-100 score of one category.
type Finding struct {
	Rating Rating `json:"rating"`
	Notes  string `json:"notes"`
	Score  *int   `json:"score,omitempty"`
}

// Findings holds one Finding per category as named fields.
type Findings struct {
	WebsiteUX       Finding
	Offer           Finding
	FacebookAds     Finding
	GoogleAds       Finding
	SocialMedia     Finding
	Reviews         Finding
	GMBOptimization Finding
	Tracking        Finding
	Retargeting     Finding
	FollowUp        Finding
}

// Each calls fn for every category in report order with a pointer to its finding.
func (f *Findings) Each(fn func(Category, *Finding)) {
	fn(CategoryWebsiteUX, &f.WebsiteUX)
	fn(CategoryOffer, &f.Offer)
	fn(CategoryFacebookAds, &f.FacebookAds)
	fn(CategoryGoogleAds, &f.GoogleAds)
	fn(CategorySocialMedia, &f.SocialMedia)
	fn(CategoryReviews, &f.Reviews)
	fn(CategoryGMBOptimization, &f.GMBOptimization)
	fn(CategoryTracking, &f.Tracking)
	fn(CategoryRetargeting, &f.Retargeting)
	fn(CategoryFollowUp, &f.FollowUp)
}

// Lookup returns a pointer to the finding for c, or nil for an unknown key.
func (f *Findings) Lookup(c Category) *Finding {
	var out *Finding
	f.Each(func(cat Category, fd *Finding) {
		if cat == c {
			out = fd
		}
	})
	return out
}

// DefaultFindings returns findings with every category rated fail.
func DefaultFindings() Findings {
	var f Findings
	f.Each(func(_ Category, fd *Finding) {
		fd.Rating = RatingFail
	})
	return f
}

// Audit is the single current audit of a prospect.
type Audit struct {
	ID         string
	ProspectID string
	Findings
	Notes               string
	CompletedBy         string
	CompletedAt         time.Time
	Score               int
	PotentialLeadsMin   *int
	PotentialLeadsMax   *int
	PotentialRevenueMin *int
	PotentialRevenueMax *int
}

// auditFields is the non-category part of the flat wire format.
type auditFields struct {
	ID                  string    `json:"id"`
	ProspectID          string    `json:"prospect_id"`
	Notes               string    `json:"notes"`
	CompletedBy         string    `json:"completed_by"`
	CompletedAt         time.Time `json:"completed_at"`
	Score               int       `json:"score"`
	PotentialLeadsMin   *int      `json:"potential_leads_min"`
	PotentialLeadsMax   *int      `json:"potential_leads_max"`
	PotentialRevenueMin *int      `json:"potential_revenue_min"`
	PotentialRevenueMax *int      `json:"potential_revenue_max"`
}

// MarshalJSON writes the flat shape used by the API:
// {"website_ux":"pass","website_ux_notes":"...","website_ux_score":null,...}.
func (a Audit) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(auditFields{
		ID:                  a.ID,
		ProspectID:          a.ProspectID,
		Notes:               a.Notes,
		CompletedBy:         a.CompletedBy,
		CompletedAt:         a.CompletedAt,
		Score:               a.Score,
		PotentialLeadsMin:   a.PotentialLeadsMin,
		PotentialLeadsMax:   a.PotentialLeadsMax,
		PotentialRevenueMin: a.PotentialRevenueMin,
		PotentialRevenueMax: a.PotentialRevenueMax,
	})
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(base, &out); err != nil {
		return nil, err
	}
	a.Findings.Each(func(c Category, fd *Finding) {
		out[string(c)] = fd.Rating
		out[string(c)+"_notes"] = fd.Notes
		out[string(c)+"_score"] = fd.Score
	})
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat API shape. Missing ratings are left empty.
func (a *Audit) UnmarshalJSON(b []byte) error {
	var base auditFields
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	a.ID = base.ID
	a.ProspectID = base.ProspectID
	a.Notes = base.Notes
	a.CompletedBy = base.CompletedBy
	a.CompletedAt = base.CompletedAt
	a.Score = base.Score
	a.PotentialLeadsMin = base.PotentialLeadsMin
	a.PotentialLeadsMax = base.PotentialLeadsMax
	a.PotentialRevenueMin = base.PotentialRevenueMin
	a.PotentialRevenueMax = base.PotentialRevenueMax

	var decodeErr error
	a.Findings.Each(func(c Category, fd *Finding) {
		if decodeErr != nil {
			return
		}
		var rating, notes *string
		if v, ok := raw[string(c)]; ok {
			if err := json.Unmarshal(v, &rating); err != nil {
				decodeErr = fmt.Errorf("%s: %w", c, err)
				return
			}
		}
		if v, ok := raw[string(c)+"_notes"]; ok {
			if err := json.Unmarshal(v, &notes); err != nil {
				decodeErr = fmt.Errorf("%s_notes: %w", c, err)
				return
			}
		}
		if v, ok := raw[string(c)+"_score"]; ok {
			if err := json.Unmarshal(v, &fd.Score); err != nil {
				decodeErr = fmt.Errorf("%s_score: %w", c, err)
				return
			}
		}
		if rating != nil {
			fd.Rating = Rating(*rating)
		}
		if notes != nil {
			fd.Notes = *notes
		}
	})
	return decodeErr
}
