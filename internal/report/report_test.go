package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadaudit/internal/asset"
	"leadaudit/internal/audit"
	"leadaudit/internal/catalog"
	"leadaudit/internal/prospect"
	"leadaudit/pkg/database/dbtest"
	"leadaudit/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func intp(v int) *int { return &v }

func TestParseOpportunities(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty pads to three", "", []string{placeholderTitle, placeholderTitle, placeholderTitle}},
		{"markers stripped", "• Add reviews\n- Fix pixel\n* Run ads", []string{"Add reviews", "Fix pixel", "Run ads"}},
		{"blank lines dropped", "\n  \nOne\n\n", []string{"One", placeholderTitle, placeholderTitle}},
		{"truncated", "a\nb\nc\nd\ne", []string{"a", "b", "c"}},
		{"crlf", "first\r\nsecond", []string{"first", "second", placeholderTitle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOpportunities(tt.in)
			require.Len(t, got, OpportunityCount)
			for i, w := range tt.want {
				assert.Equal(t, w, got[i].Title)
				assert.Equal(t, "High", got[i].Impact)
			}
		})
	}
	assert.Equal(t, placeholderDetails, ParseOpportunities("")[2].Description)
}

func TestBadgeAndColor(t *testing.T) {
	assert.Equal(t, "Optimized", Badge(models.RatingPass))
	assert.Equal(t, "Needs Work", Badge(models.RatingWarning))
	assert.Equal(t, "Missing", Badge(models.RatingFail))
	assert.Equal(t, "#16a34a", Color(models.RatingPass))
	assert.Equal(t, "#f59e0b", Color(models.RatingWarning))
	assert.Equal(t, "#dc2626", Color(models.RatingFail))
	assert.Equal(t, "#64748b", Color(models.Rating("other")))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://r.test/acme", PublicURL("https://r.test/", "acme", false))
	assert.Equal(t, "https://r.test/#/acme", PublicURL("https://r.test", "acme", true))
}

func TestBuild(t *testing.T) {
	p := &models.Prospect{
		CompanyName: "Acme Dental", CompanySlug: "acme-dental", City: "Austin",
		TopOpportunities: "• Collect reviews\nInstall the pixel",
	}
	a := &models.Audit{
		Findings:          models.DefaultFindings(),
		CompletedAt:       time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		PotentialLeadsMin: intp(10),
	}
	a.Offer.Rating = models.RatingPass
	a.Reviews.Rating = models.RatingWarning
	a.Reviews.Notes = "Only 12 reviews"
	a.Tracking.Score = intp(150)

	assets := []models.Asset{
		{ID: "1", Label: "reviews", URL: "u1"},
		{ID: "2", Label: "reviews", URL: "u2"},
		{ID: "3", Label: "unrelated", URL: "u3"},
	}

	r := Build(p, a, assets, catalog.Default(), "https://r.test/acme-dental")
	require.Equal(t, StateReady, r.State)
	assert.Equal(t, "March 2024", r.Header.AuditDate)

	// 100 + 50 + 100 (clamped) + 7*20 = 390 / 10
	require.NotNil(t, r.Score)
	assert.Equal(t, 39, *r.Score)
	assert.Contains(t, r.Band, "significant room")

	require.Len(t, r.Chart, 10)
	require.Len(t, r.Categories, 10)
	assert.Equal(t, "Website UX", r.Chart[0].Name)

	byKey := map[models.Category]Block{}
	for _, b := range r.Categories {
		byKey[b.Key] = b
	}
	assert.Equal(t, "Optimized", byKey[models.CategoryOffer].Badge)
	assert.Equal(t, DefaultNotes, byKey[models.CategoryOffer].Notes)
	assert.Equal(t, "Only 12 reviews", byKey[models.CategoryReviews].Notes)
	assert.Len(t, byKey[models.CategoryReviews].Screenshots, 2)
	assert.Empty(t, byKey[models.CategoryOffer].Screenshots)
	assert.Equal(t, 100, byKey[models.CategoryTracking].Score)

	assert.Equal(t, Projections{LeadsMin: 10, LeadsMax: 60, RevenueMin: 25000, RevenueMax: 40000}, *r.Projections)
	assert.Equal(t, "Acme Dental Marketing Audit | Yak Media", r.Meta.Title)
	assert.Equal(t, "Quick wins for Acme Dental: Collect reviews. See 10-point marketing audit with insights.", r.Meta.Description)
}

func TestBuildStrongBand(t *testing.T) {
	a := &models.Audit{Findings: models.DefaultFindings(), CompletedAt: time.Now()}
	a.Findings.Each(func(_ models.Category, fd *models.Finding) { fd.Rating = models.RatingPass })
	r := Build(&models.Prospect{CompanyName: "X"}, a, nil, catalog.Default(), "")
	assert.Equal(t, 100, *r.Score)
	assert.Contains(t, r.Band, "Strong marketing foundation")
}

func TestRenderStates(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	svc := NewService(db, "https://r.test", false)

	p := &models.Prospect{CompanyName: "Acme Dental", CompanySlug: "acme-dental"}
	require.NoError(t, prospect.NewRepo(db).Create(ctx, p))

	r, err := svc.Render(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, r.State)

	r, err = svc.Render(ctx, "acme-dental")
	require.NoError(t, err)
	assert.Equal(t, StateAuditPending, r.State)
	assert.Nil(t, r.Score)
	assert.Empty(t, r.Categories)

	a := &models.Audit{ProspectID: p.ID, Findings: models.DefaultFindings()}
	a.WebsiteUX.Rating = models.RatingPass
	require.NoError(t, audit.Normalize(a))
	require.NoError(t, audit.NewRepo(db).Upsert(ctx, a))
	require.NoError(t, asset.NewRepo(db).Create(ctx, &models.Asset{
		ProspectID: p.ID, Kind: models.AssetKindScreenshot, Label: "website_ux", URL: "http://b/1.png",
	}))

	r, err = svc.Render(ctx, "acme-dental")
	require.NoError(t, err)
	require.Equal(t, StateReady, r.State)
	assert.Equal(t, "https://r.test/acme-dental", r.URL)
	assert.Equal(t, 28, *r.Score)
	assert.Len(t, r.Categories[0].Screenshots, 1)

	idx, err := svc.Index(ctx)
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.True(t, idx[0].HasAudit)
	assert.Equal(t, 1, *idx[0].Score)
}

func TestHandler(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	require.NoError(t, prospect.NewRepo(db).Create(ctx, &models.Prospect{CompanyName: "Acme", CompanySlug: "acme"}))

	r := gin.New()
	h := NewHandler(NewService(db, "https://r.test", true))
	h.RegisterPublicRoutes(r.Group(""))
	h.RegisterRoutes(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"not_found"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/acme", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"audit_pending"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Reports []IndexEntry `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, 1)
	assert.Equal(t, "https://r.test/#/acme", resp.Reports[0].URL)
	assert.False(t, resp.Reports[0].HasAudit)
}
