package prospect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadaudit/internal/asset"
	"leadaudit/internal/slug"
	"leadaudit/internal/storage"
	"leadaudit/pkg/database"
	"leadaudit/pkg/database/dbtest"
	"leadaudit/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db    *database.DB
	blobs *storage.MemoryStore
	svc   *Service
	r     *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	blobs := storage.NewMemoryStore("http://blobs.test", "screens")
	assets := asset.NewService(asset.NewRepo(db), blobs, 1<<20)
	svc := NewService(db, assets, 0)

	r := gin.New()
	h := NewHandler(svc, nil)
	h.RegisterPublicRoutes(r.Group(""))
	h.RegisterRoutes(r.Group(""))
	return &env{db: db, blobs: blobs, svc: svc, r: r}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func TestCreateDerivesUniqueSlugs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Acme Dental"})
	require.NoError(t, err)
	second, err := e.svc.Create(ctx, models.Prospect{CompanyName: "ACME dental!"})
	require.NoError(t, err)
	third, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Acme  Dental"})
	require.NoError(t, err)

	assert.Equal(t, "acme-dental", first.CompanySlug)
	assert.Equal(t, "acme-dental-2", second.CompanySlug)
	assert.Equal(t, "acme-dental-3", third.CompanySlug)
}

func TestCreateSlugExhausted(t *testing.T) {
	e := newEnv(t)
	e.svc.MaxSlugAttempts = 2
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Bolt"})
		require.NoError(t, err)
	}
	_, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Bolt"})
	require.ErrorIs(t, err, slug.ErrSlugExhausted)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"blank name", gin.H{"company_name": "   "}, http.StatusBadRequest},
		{"name without letters", gin.H{"company_name": "!!!"}, http.StatusBadRequest},
		{"malformed slug", gin.H{"company_name": "Acme", "company_slug": "Acme Co"}, http.StatusBadRequest},
		{"ok with slug", gin.H{"company_name": "Acme", "company_slug": "acme-co", "city": "Austin"}, http.StatusOK},
		{"taken slug", gin.H{"company_name": "Acme", "company_slug": "acme-co"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/prospects", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestListNewestFirstWithFilter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, p := range []models.Prospect{
		{CompanyName: "Acme Dental", City: "Austin", OwnerName: "Ann"},
		{CompanyName: "Bolt Chiro", City: "Boston", OwnerName: "Bob"},
		{CompanyName: "Crest Ortho", City: "Austin", OwnerName: "Cy"},
	} {
		p.CompanySlug = slug.Make(p.CompanyName)
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, e.svc.Prospects.Create(ctx, &p))
	}

	all, err := e.svc.Prospects.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Crest Ortho", all[0].CompanyName)
	assert.Equal(t, "Acme Dental", all[2].CompanyName)

	w := e.do(t, http.MethodGet, "/prospects?q=AUSTIN", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Prospects []models.Prospect `json:"prospects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Prospects, 2)
	assert.Equal(t, "Crest Ortho", resp.Prospects[0].CompanyName)

	byOwner, err := e.svc.Prospects.List(ctx, ListQuery{Q: "bob"})
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "Bolt Chiro", byOwner[0].CompanyName)
}

func TestGetAndCheckSlug(t *testing.T) {
	e := newEnv(t)
	p, err := e.svc.Create(context.Background(), models.Prospect{CompanyName: "Acme Dental"})
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/prospects/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"audit":null`)
	assert.Contains(t, w.Body.String(), `"assets":[]`)

	w = e.do(t, http.MethodGet, "/prospects/slug/acme-dental", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/prospects/slug/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Prospect not found"}`, w.Body.String())

	w = e.do(t, http.MethodGet, "/prospects/check-slug/acme-dental", nil)
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())
	w = e.do(t, http.MethodGet, "/prospects/check-slug/other", nil)
	assert.JSONEq(t, `{"exists":false}`, w.Body.String())
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)
	p, err := e.svc.Create(context.Background(), models.Prospect{CompanyName: "Acme Dental", City: "Austin"})
	require.NoError(t, err)

	w := e.do(t, http.MethodPut, "/prospects/"+p.ID, gin.H{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Prospect models.Prospect `json:"prospect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "555-0100", resp.Prospect.Phone)
	assert.Equal(t, "Austin", resp.Prospect.City, "unsupplied fields are kept")

	w = e.do(t, http.MethodPut, "/prospects/"+p.ID, gin.H{"company_slug": "new-slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/prospects/"+p.ID, gin.H{"company_slug": "acme-dental", "city": "Dallas"})
	assert.Equal(t, http.StatusOK, w.Code, "resending the same slug is allowed")

	w = e.do(t, http.MethodPut, "/prospects/"+p.ID, gin.H{"company_name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/prospects/missing", gin.H{"city": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCascadeDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Acme Dental"})
	require.NoError(t, err)
	keep, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Keep Me"})
	require.NoError(t, err)

	require.NoError(t, e.svc.Audits.Upsert(ctx, &models.Audit{ProspectID: p.ID, Findings: models.DefaultFindings()}))
	for _, label := range []string{"offer", "reviews"} {
		_, err := e.svc.Assets.Upload(ctx, asset.UploadInput{
			ProspectID: p.ID, CompanySlug: p.CompanySlug, Label: label,
			Filename: label + ".png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
		})
		require.NoError(t, err)
	}
	_, err = e.svc.Assets.Upload(ctx, asset.UploadInput{
		ProspectID: keep.ID, CompanySlug: keep.CompanySlug, Label: "offer",
		Filename: "k.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	require.NoError(t, err)
	require.Len(t, e.blobs.Keys(), 3)

	w := e.do(t, http.MethodDelete, "/prospects/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Success         bool            `json:"success"`
		DeletedProspect models.Prospect `json:"deletedProspect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, p.ID, resp.DeletedProspect.ID)

	for table, want := range map[string]int{"prospects": 0, "audits": 0, "assets": 0} {
		var n int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, table, map[string]string{
			"prospects": "id", "audits": "prospect_id", "assets": "prospect_id",
		}[table])
		require.NoError(t, e.db.QueryRowContext(ctx, q, p.ID).Scan(&n))
		assert.Equal(t, want, n, table)
	}
	assert.Len(t, e.blobs.Keys(), 1, "only the other prospect's blob remains")

	w = e.do(t, http.MethodGet, "/prospects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Prospect not found"}`, w.Body.String())

	w = e.do(t, http.MethodDelete, "/prospects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCascadeDeleteSurvivesBlobFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, models.Prospect{CompanyName: "Acme Dental"})
	require.NoError(t, err)
	_, err = e.svc.Assets.Upload(ctx, asset.UploadInput{
		ProspectID: p.ID, CompanySlug: p.CompanySlug, Label: "offer",
		Filename: "o.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	require.NoError(t, err)

	e.blobs.FailRemove = true
	deleted, err := e.svc.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	got, err := e.svc.Prospects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchemaMissingReturns503(t *testing.T) {
	db := dbtest.Empty(t)
	assets := asset.NewService(asset.NewRepo(db), storage.NewMemoryStore("http://blobs.test", "screens"), 0)
	r := gin.New()
	NewHandler(NewService(db, assets, 0), nil).RegisterRoutes(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prospects", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SCHEMA_MISSING"`)
}
