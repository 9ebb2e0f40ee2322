package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"leadaudit/internal/asset"
	"leadaudit/internal/catalog"
	"leadaudit/internal/prospect"
	"leadaudit/internal/storage"
	"leadaudit/internal/transfer"
	"leadaudit/pkg/database"
	"leadaudit/pkg/models"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			v, err := database.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "schema at version %d (%s)\n", v, db.Driver)
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export prospects with audit scores to CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := transfer.Collect(cmd.Context(), db, cfg.Report.BaseURL, cfg.Report.HashRouting)
			if err != nil {
				return err
			}

			var w io.Writer = a.out
			if out != "" && out != "-" {
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch strings.ToLower(format) {
			case "csv":
				err = transfer.WriteCSV(w, rows)
			case "xlsx":
				if w == a.out {
					return fmt.Errorf("xlsx export needs --out")
				}
				err = transfer.WriteXLSX(w, rows)
			default:
				return fmt.Errorf("unknown format %q (csv or xlsx)", format)
			}
			if err != nil {
				return err
			}
			if w != a.out {
				fmt.Fprintf(a.out, "exported %d prospects to %s\n", len(rows), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout for csv)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Create prospects from a CSV or XLSX file with a company_name column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			// Imports never touch blobs; the store only satisfies the service.
			assets := asset.NewService(asset.NewRepo(db), storage.NewMemoryStore("", cfg.Storage.Bucket), 0)
			svc := prospect.NewService(db, assets, cfg.SlugMaxAttempts)

			var res transfer.Result
			if strings.EqualFold(filepath.Ext(args[0]), ".xlsx") {
				res, err = transfer.ImportXLSX(cmd.Context(), svc, f)
			} else {
				res, err = transfer.ImportCSV(cmd.Context(), svc, f)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %d prospects, skipped %d\n", res.Created, res.Skipped)
			return nil
		},
	}
}

func (a *app) guideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide [category]",
		Short: "Print the auditor checklist for each category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			entries := cat.Entries()
			if len(args) == 1 {
				e, ok := cat.Get(models.Category(args[0]))
				if !ok {
					return fmt.Errorf("unknown category %q", args[0])
				}
				entries = []catalog.Entry{e}
			}
			for i, e := range entries {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				fmt.Fprintf(a.out, "%s (%s)\n  %s\n", e.Label, e.Key, e.Description)
				fmt.Fprintln(a.out, "  Look for:")
				for _, l := range e.LookFor {
					fmt.Fprintf(a.out, "    - %s\n", l)
				}
				fmt.Fprintf(a.out, "  Pass:    %s\n  Warning: %s\n  Fail:    %s\n", e.Scoring.Pass, e.Scoring.Warning, e.Scoring.Fail)
				if e.Deliverable != "" {
					fmt.Fprintf(a.out, "  Deliverable: %s\n", e.Deliverable)
				}
				if len(e.Tools) > 0 {
					fmt.Fprintf(a.out, "  Tools: %s\n", strings.Join(e.Tools, ", "))
				}
			}
			return nil
		},
	}
}
