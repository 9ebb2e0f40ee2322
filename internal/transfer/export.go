// Package transfer moves prospects in and out of CSV and XLSX files.
package transfer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"leadaudit/internal/audit"
	"leadaudit/internal/prospect"
	"leadaudit/internal/report"
	"leadaudit/internal/scoring"
	"leadaudit/pkg/database"
	"leadaudit/pkg/models"
)

var exportHeader = []string{
	"company_name", "company_slug", "owner_name", "email", "phone", "website",
	"instagram", "facebook", "gmb_url", "city", "top_opportunities", "created_at",
	"score", "overall", "completed_by", "completed_at", "report_url",
}

// Row is one exported prospect with its audit summary.
type Row struct {
	Prospect  models.Prospect
	Audit     *models.Audit
	ReportURL string
}

func (r Row) values() []string {
	p := r.Prospect
	out := []string{
		p.CompanyName, p.CompanySlug, p.OwnerName, p.Email, p.Phone, p.Website,
		p.Instagram, p.Facebook, p.GMBURL, p.City, p.TopOpportunities,
		p.CreatedAt.UTC().Format(time.RFC3339),
		"", "", "", "",
		r.ReportURL,
	}
	if a := r.Audit; a != nil {
		out[12] = strconv.Itoa(a.Score)
		out[13] = strconv.Itoa(scoring.Overall(a.Findings))
		out[14] = a.CompletedBy
		out[15] = a.CompletedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// Collect loads every prospect, newest first, with its audit.
func Collect(ctx context.Context, db database.Querier, reportBase string, hashRouting bool) ([]Row, error) {
	prospects, err := prospect.NewRepo(db).List(ctx, prospect.ListQuery{})
	if err != nil {
		return nil, err
	}
	audits, err := audit.NewRepo(db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(prospects))
	for _, p := range prospects {
		rows = append(rows, Row{
			Prospect:  p,
			Audit:     audits[p.ID],
			ReportURL: report.PublicURL(reportBase, p.CompanySlug, hashRouting),
		})
	}
	return rows, nil
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Prospects"

func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := setRow(f, 1, exportHeader); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, i+2, r.values()); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &row)
}
