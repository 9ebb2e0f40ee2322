package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"leadaudit/internal/prospect"
	"leadaudit/pkg/logger"
	"leadaudit/pkg/models"
)

// Result counts what an import did.
type Result struct {
	Created int
	Skipped int
}

// Creator is the part of prospect.Service an import needs.
type Creator interface {
	Create(ctx context.Context, in models.Prospect) (*models.Prospect, error)
}

var _ Creator = (*prospect.Service)(nil)

func readHeader(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func prospectFrom(header map[string]int, row []string) models.Prospect {
	return models.Prospect{
		CompanyName:      valueAt(header, row, "company_name"),
		CompanySlug:      valueAt(header, row, "company_slug"),
		OwnerName:        valueAt(header, row, "owner_name"),
		Email:            valueAt(header, row, "email"),
		Phone:            valueAt(header, row, "phone"),
		Website:          valueAt(header, row, "website"),
		Instagram:        valueAt(header, row, "instagram"),
		Facebook:         valueAt(header, row, "facebook"),
		GMBURL:           valueAt(header, row, "gmb_url"),
		City:             valueAt(header, row, "city"),
		TopOpportunities: valueAt(header, row, "top_opportunities"),
	}
}

// importRows creates a prospect per row. Rows without a company name or
// whose slug is already taken are skipped; other errors stop the import.
func importRows(ctx context.Context, svc Creator, rows [][]string) (Result, error) {
	var res Result
	if len(rows) == 0 {
		return res, errors.New("empty file")
	}
	header := readHeader(rows[0])
	if _, ok := header["company_name"]; !ok {
		return res, errors.New("missing company_name column")
	}

	log := logger.WithContext(ctx)
	for i, row := range rows[1:] {
		p := prospectFrom(header, row)
		if p.CompanyName == "" {
			res.Skipped++
			continue
		}
		_, err := svc.Create(ctx, p)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, prospect.ErrSlugTaken), errors.Is(err, prospect.ErrInvalidSlug),
			errors.Is(err, prospect.ErrNameNoSlug):
			log.Warn("skipped import row", zap.Int("line", i+2), zap.String("company_name", p.CompanyName), zap.Error(err))
			res.Skipped++
		default:
			return res, fmt.Errorf("line %d: %w", i+2, err)
		}
	}
	return res, nil
}

func ImportCSV(ctx context.Context, svc Creator, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}
	return importRows(ctx, svc, rows)
}

// ImportXLSX reads the first sheet of the workbook.
func ImportXLSX(ctx context.Context, svc Creator, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return importRows(ctx, svc, rows)
}
