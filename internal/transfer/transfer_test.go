package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"leadaudit/internal/asset"
	"leadaudit/internal/audit"
	"leadaudit/internal/prospect"
	"leadaudit/internal/storage"
	"leadaudit/pkg/database"
	"leadaudit/pkg/database/dbtest"
	"leadaudit/pkg/models"
)

func newProspects(t *testing.T) (*prospect.Service, *database.DB) {
	t.Helper()
	db := dbtest.New(t)
	assets := asset.NewService(asset.NewRepo(db), storage.NewMemoryStore("http://b", "screens"), 0)
	return prospect.NewService(db, assets, 0), db
}

func TestImportCSV(t *testing.T) {
	svc, _ := newProspects(t)
	ctx := context.Background()

	in := strings.Join([]string{
		"Company_Name,City,Owner_Name,company_slug",
		"Acme Dental,Austin,Ann,",
		"Acme Dental,Austin,Ann,",
		",Nowhere,,",
		"Taken Co,Boston,,acme-dental",
		"Bad Slug,Boston,,Bad Slug",
	}, "\n")

	res, err := ImportCSV(ctx, svc, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2, Skipped: 3}, res)

	list, err := svc.Prospects.List(ctx, prospect.ListQuery{})
	require.NoError(t, err)
	slugs := []string{list[0].CompanySlug, list[1].CompanySlug}
	assert.ElementsMatch(t, []string{"acme-dental", "acme-dental-2"}, slugs)

	_, err = ImportCSV(ctx, svc, strings.NewReader("name,city\nx,y"))
	assert.Error(t, err)
}

func TestExportCSVAndXLSX(t *testing.T) {
	svc, db := newProspects(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, models.Prospect{CompanyName: "Acme Dental", City: "Austin"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.Prospect{CompanyName: "Bolt Chiro"})
	require.NoError(t, err)

	a := &models.Audit{ProspectID: p.ID, Findings: models.DefaultFindings(), CompletedBy: "Sam"}
	a.Offer.Rating = models.RatingPass
	require.NoError(t, audit.Normalize(a))
	require.NoError(t, audit.NewRepo(db).Upsert(ctx, a))

	rows, err := Collect(ctx, db, "https://r.test", false)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])

	byName := map[string][]string{}
	for _, r := range records[1:] {
		byName[r[0]] = r
	}
	acme := byName["Acme Dental"]
	assert.Equal(t, "1", acme[12])
	assert.Equal(t, "28", acme[13])
	assert.Equal(t, "Sam", acme[14])
	assert.Equal(t, "https://r.test/acme-dental", acme[16])
	assert.Equal(t, "", byName["Bolt Chiro"][12])

	buf.Reset()
	require.NoError(t, WriteXLSX(&buf, rows))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	xrows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, xrows, 3)
	assert.Equal(t, "company_name", xrows[0][0])
}

func TestImportXLSX(t *testing.T) {
	svc, _ := newProspects(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"company_name", "city"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Crest Ortho", "Denver"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := ImportXLSX(context.Background(), svc, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	got, err := svc.Prospects.GetBySlug(context.Background(), "crest-ortho")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Denver", got.City)
}
