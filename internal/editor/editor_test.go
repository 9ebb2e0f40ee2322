package editor

import (
	"bytes"
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
	"leadaudit/internal/auth"
	"leadaudit/internal/catalog"
	"leadaudit/internal/prospect"
	"leadaudit/internal/report"
	"leadaudit/pkg/database"
	"leadaudit/pkg/database/dbtest"
	"leadaudit/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *database.DB) {
	t.Helper()
	db := dbtest.New(t)
	svc := NewService(db, report.NewService(db, "https://r.test", false))
	svc.Now = func() time.Time { return fixedNow }
	return svc, db
}

func seedProspect(t *testing.T, db *database.DB, name, slug string) *models.Prospect {
	t.Helper()
	p := &models.Prospect{CompanyName: name, CompanySlug: slug}
	require.NoError(t, prospect.NewRepo(db).Create(context.Background(), p))
	return p
}

func TestDraftDefaults(t *testing.T) {
	svc, db := newService(t)
	p := seedProspect(t, db, "Acme", "acme")
	require.NoError(t, asset.NewRepo(db).Create(context.Background(), &models.Asset{
		ProspectID: p.ID, Kind: models.AssetKindScreenshot, Label: "offer", URL: "u",
	}))

	d, err := svc.Load(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, d.Published)
	d.Audit.Findings.Each(func(c models.Category, fd *models.Finding) {
		assert.Equal(t, models.RatingFail, fd.Rating, c)
		assert.Empty(t, fd.Notes, c)
	})
	assert.Len(t, d.Screenshots["offer"], 1)
	assert.Equal(t, Preview{Coarse: 0, CoarseLabel: "Critical", Overall: 20, Band: d.Score().Band}, d.Score())

	_, err = svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDraftEditing(t *testing.T) {
	d := NewDraft(&models.Prospect{ID: "p1"}, nil, []models.Asset{
		{ID: "a1", Label: "reviews"}, {ID: "a2", Label: "reviews"},
	})

	require.NoError(t, d.SetRating(models.CategoryReviews, "PASS"))
	require.NoError(t, d.SetRating(models.CategoryOffer, "warning"))
	require.NoError(t, d.SetNotes(models.CategoryOffer, "  weak offer "))
	assert.Error(t, d.SetRating(models.CategoryOffer, "great"))
	assert.Error(t, d.SetRating("bogus", "pass"))
	assert.Error(t, d.SetNotes("bogus", "x"))

	assert.Equal(t, "weak offer", d.Audit.Offer.Notes)
	// 100 + 50 + 8*20 = 310 / 10
	assert.Equal(t, Preview{Coarse: 1, CoarseLabel: "Critical", Overall: 31, Band: d.Score().Band}, d.Score())

	v := 90
	require.NoError(t, d.SetScore(models.CategoryOffer, &v))
	assert.Equal(t, 35, d.Score().Overall)

	assert.True(t, d.RemoveScreenshot("a1"))
	assert.False(t, d.RemoveScreenshot("a1"))
	assert.Len(t, d.Screenshots["reviews"], 1)
	assert.True(t, d.RemoveScreenshot("a2"))
	assert.NotContains(t, d.Screenshots, "reviews")

	rows := d.Categories(catalog.Default())
	require.Len(t, rows, 10)
	assert.Equal(t, "Offer", rows[1].Label)
	assert.Equal(t, models.RatingWarning, rows[1].Rating)
}

func TestPublishIsAtomicAndUpserts(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProspect(t, db, "Acme", "acme")

	d, err := svc.Load(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, d.SetRating(models.CategoryWebsiteUX, "pass"))
	in := d.Input()
	top := "• Get reviews\n• Fix pixel"
	in.TopOpportunities = &top

	out, err := svc.Publish(ctx, in, "Sam Auditor")
	require.NoError(t, err)
	assert.Equal(t, "https://r.test/acme", out.PublicURL)
	assert.Equal(t, 1, out.Audit.Score)
	assert.Equal(t, "Sam Auditor", out.Audit.CompletedBy)
	assert.True(t, out.Audit.CompletedAt.Equal(fixedNow))
	firstID := out.Audit.ID

	got, err := svc.Prospects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, top, got.TopOpportunities)

	in.Audit.CompletedBy = "Someone Else"
	in.Audit.Findings.Offer.Rating = models.RatingPass
	out, err = svc.Publish(ctx, in, "Sam Auditor")
	require.NoError(t, err)
	assert.Equal(t, firstID, out.Audit.ID, "republishing keeps the audit row")
	assert.Equal(t, 2, out.Audit.Score)
	assert.Equal(t, "Someone Else", out.Audit.CompletedBy)

	_, err = svc.Publish(ctx, PublishInput{Audit: models.Audit{ProspectID: "missing"}}, "")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = svc.Publish(ctx, PublishInput{Audit: models.Audit{}}, "")
	assert.ErrorIs(t, err, ErrProspectRequired)
}

func TestPublishRollsBackOnInvalidAudit(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := seedProspect(t, db, "Acme", "acme")

	lo, hi := 10, 5
	top := "should not be saved"
	_, err := svc.Publish(ctx, PublishInput{
		Audit:            models.Audit{ProspectID: p.ID, PotentialLeadsMin: &lo, PotentialLeadsMax: &hi},
		TopOpportunities: &top,
	}, "")
	require.ErrorIs(t, err, ErrInvalidAudit)

	got, err := svc.Prospects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TopOpportunities)
	a, err := svc.Audits.GetByProspect(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestHandler(t *testing.T) {
	svc, db := newService(t)
	p := seedProspect(t, db, "Acme", "acme")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.WithSession(c, &auth.Session{UserID: "u1", Name: "Sam"})
		c.Next()
	})
	NewHandler(svc, nil).RegisterRoutes(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prospects/"+p.ID+"/editor", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"published":false`)

	body, _ := json.Marshal(map[string]any{
		"prospect_id":       p.ID,
		"website_ux":        "pass",
		"offer":             "warning",
		"offer_notes":       "no offer above the fold",
		"top_opportunities": "Add an offer",
	})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/audits", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Audit     models.Audit `json:"audit"`
		PublicURL string       `json:"public_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://r.test/acme", resp.PublicURL)
	assert.Equal(t, "Sam", resp.Audit.CompletedBy)
	assert.Equal(t, models.RatingWarning, resp.Audit.Offer.Rating)
	assert.Equal(t, models.RatingFail, resp.Audit.Tracking.Rating)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/audits", bytes.NewReader([]byte(`{"prospect_id":"`+p.ID+`","offer":"great"}`))))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prospects/missing/editor", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Prospect not found"}`, w.Body.String())
}
