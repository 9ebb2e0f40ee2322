// Package report builds the public audit report shown at /<slug>.
package report

import (
	"regexp"
	"strings"
	"time"

	"leadaudit/internal/catalog"
	"leadaudit/internal/scoring"
	"leadaudit/pkg/models"
)

type State string

const (
	StateNotFound     State = "not_found"
	StateAuditPending State = "audit_pending"
	StateReady        State = "ready"
)

const (
	OpportunityCount   = 3
	DefaultLeadsMin    = 40
	DefaultLeadsMax    = 60
	DefaultRevenueMin  = 25000
	DefaultRevenueMax  = 40000
	DefaultNotes       = "No detailed findings provided."
	placeholderTitle   = "Optimization Opportunity Available"
	placeholderDetails = "Additional growth opportunity identified during audit."
	impactHigh         = "High"
)

type Header struct {
	CompanyName string `json:"company_name"`
	OwnerName   string `json:"owner_name"`
	City        string `json:"city"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	AuditDate   string `json:"audit_date,omitempty"`
}

type Opportunity struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

type Bar struct {
	Name   string        `json:"name"`
	Score  int           `json:"score"`
	Status models.Rating `json:"status"`
	Color  string        `json:"color"`
}

type Block struct {
	Key         models.Category `json:"key"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Status      models.Rating   `json:"status"`
	Badge       string          `json:"badge"`
	Score       int             `json:"score"`
	Notes       string          `json:"notes"`
	Screenshots []models.Asset  `json:"screenshots"`
}

type Projections struct {
	LeadsMin   int `json:"leads_min"`
	LeadsMax   int `json:"leads_max"`
	RevenueMin int `json:"revenue_min"`
	RevenueMax int `json:"revenue_max"`
}

type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Report is the render model. Only StateReady reports carry the score,
// chart and category blocks.
type Report struct {
	State         State         `json:"state"`
	Slug          string        `json:"slug"`
	URL           string        `json:"url,omitempty"`
	Header        *Header       `json:"header,omitempty"`
	Score         *int          `json:"score,omitempty"`
	Band          string        `json:"band,omitempty"`
	Opportunities []Opportunity `json:"opportunities,omitempty"`
	Chart         []Bar         `json:"chart,omitempty"`
	Categories    []Block       `json:"categories,omitempty"`
	Projections   *Projections  `json:"projections,omitempty"`
	Meta          *Meta         `json:"meta,omitempty"`
}

var bulletPrefix = regexp.MustCompile(`^[•\-*]\s*`)

// ParseOpportunities turns the newline separated opportunities text into
// exactly three entries, padding with a generic placeholder.
func ParseOpportunities(text string) []Opportunity {
	out := make([]Opportunity, 0, OpportunityCount)
	for _, line := range strings.Split(text, "\n") {
		if len(out) == OpportunityCount {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = bulletPrefix.ReplaceAllString(line, "")
		out = append(out, Opportunity{Title: line, Description: line, Impact: impactHigh})
	}
	for len(out) < OpportunityCount {
		out = append(out, Opportunity{Title: placeholderTitle, Description: placeholderDetails, Impact: impactHigh})
	}
	return out
}

// Badge is the short status label shown on a category block.
func Badge(r models.Rating) string {
	switch r {
	case models.RatingPass:
		return "Optimized"
	case models.RatingWarning:
		return "Needs Work"
	default:
		return "Missing"
	}
}

// Color is the chart colour for a status.
func Color(r models.Rating) string {
	switch r {
	case models.RatingPass:
		return "#16a34a"
	case models.RatingWarning:
		return "#f59e0b"
	case models.RatingFail:
		return "#dc2626"
	default:
		return "#64748b"
	}
}

// PublicURL is where the report for slug is served.
func PublicURL(base, slug string, hashRouting bool) string {
	base = strings.TrimRight(base, "/")
	if hashRouting {
		return base + "/#/" + slug
	}
	return base + "/" + slug
}

func orDefault(p *int, def int) int {
	if p == nil || *p == 0 {
		return def
	}
	return *p
}

func header(p *models.Prospect) *Header {
	return &Header{
		CompanyName: p.CompanyName,
		OwnerName:   p.OwnerName,
		City:        p.City,
		Phone:       p.Phone,
		Website:     p.Website,
	}
}

func title(p *models.Prospect) string {
	return p.CompanyName + " Marketing Audit | Yak Media"
}

// Pending is the report for a prospect whose audit is not published yet.
func Pending(p *models.Prospect, url string) *Report {
	return &Report{
		State:  StateAuditPending,
		Slug:   p.CompanySlug,
		URL:    url,
		Header: header(p),
		Meta: &Meta{
			Title:       title(p),
			Description: "Comprehensive marketing audit for " + p.CompanyName + " - 10-point analysis by Yak Media.",
		},
	}
}

// Build assembles a ready report. Screenshots are attached to the category
// whose key equals their label.
func Build(p *models.Prospect, a *models.Audit, assets []models.Asset, cat *catalog.Catalog, url string) *Report {
	byLabel := make(map[string][]models.Asset)
	for _, as := range assets {
		byLabel[as.Label] = append(byLabel[as.Label], as)
	}

	findings := a.Findings
	overall := scoring.Overall(findings)
	r := &Report{
		State:         StateReady,
		Slug:          p.CompanySlug,
		URL:           url,
		Header:        header(p),
		Score:         &overall,
		Band:          scoring.Band(overall),
		Opportunities: ParseOpportunities(p.TopOpportunities),
		Projections: &Projections{
			LeadsMin:   orDefault(a.PotentialLeadsMin, DefaultLeadsMin),
			LeadsMax:   orDefault(a.PotentialLeadsMax, DefaultLeadsMax),
			RevenueMin: orDefault(a.PotentialRevenueMin, DefaultRevenueMin),
			RevenueMax: orDefault(a.PotentialRevenueMax, DefaultRevenueMax),
		},
	}
	if !a.CompletedAt.IsZero() {
		r.Header.AuditDate = a.CompletedAt.UTC().Format("January 2006")
	} else {
		r.Header.AuditDate = time.Now().UTC().Format("January 2006")
	}

	findings.Each(func(c models.Category, fd *models.Finding) {
		status := fd.Rating.OrFail()
		score := scoring.Category(*fd)
		label := cat.Label(c)
		entry, _ := cat.Get(c)

		notes := strings.TrimSpace(fd.Notes)
		if notes == "" {
			notes = DefaultNotes
		}
		shots := byLabel[string(c)]
		if shots == nil {
			shots = []models.Asset{}
		}

		r.Chart = append(r.Chart, Bar{Name: label, Score: score, Status: status, Color: Color(status)})
		r.Categories = append(r.Categories, Block{
			Key:         c,
			Label:       label,
			Description: entry.Description,
			Status:      status,
			Badge:       Badge(status),
			Score:       score,
			Notes:       notes,
			Screenshots: shots,
		})
	})

	r.Meta = &Meta{
		Title:       title(p),
		Description: "Quick wins for " + p.CompanyName + ": " + r.Opportunities[0].Title + ". See 10-point marketing audit with insights.",
	}
	return r
}
