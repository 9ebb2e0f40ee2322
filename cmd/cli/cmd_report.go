package main

import (
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"leadaudit/internal/client"
	"leadaudit/internal/events"
	"leadaudit/internal/report"
)

func (a *app) uploadCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "upload <prospect-id> <label> <file>",
		Short: "Upload a screenshot for one audit category",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			details, err := c.GetProspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()

			ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(args[2])))
			res, err := c.Upload(cmd.Context(), client.UploadRequest{
				ProspectID:  details.Prospect.ID,
				CompanySlug: details.Prospect.CompanySlug,
				Label:       args[1],
				Kind:        kind,
				Filename:    filepath.Base(args[2]),
				ContentType: ct,
				Body:        f,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "uploaded %s\n%s\n", res.Asset.ID, res.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "screenshot", "asset kind")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report <slug>",
		Short: "Render the public report for a slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(false)
			if err != nil {
				return err
			}
			r, err := c.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(r)
			}
			return a.printReport(r)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw report model")
	return cmd
}

func (a *app) printReport(r *report.Report) error {
	switch r.State {
	case report.StateNotFound:
		fmt.Fprintf(a.out, "Report not found: no prospect with slug %q\n", r.Slug)
		return nil
	case report.StateAuditPending:
		fmt.Fprintf(a.out, "%s exists, but the audit hasn't been completed yet.\n", r.Header.CompanyName)
		return nil
	}

	h := r.Header
	fmt.Fprintf(a.out, "%s\n%s\n", r.Meta.Title, strings.Repeat("=", len(r.Meta.Title)))
	fmt.Fprintf(a.out, "%s · %s · %s · %s\n\n", h.OwnerName, h.City, h.Phone, h.AuditDate)
	fmt.Fprintf(a.out, "Overall score: %d/100\n%s\n\n", *r.Score, r.Band)

	fmt.Fprintln(a.out, "Top opportunities:")
	for i, o := range r.Opportunities {
		fmt.Fprintf(a.out, "  %d. %s (%s impact)\n", i+1, o.Title, o.Impact)
	}
	fmt.Fprintln(a.out)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSCORE\tSTATUS\tNOTES")
	for _, b := range r.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b.Label, b.Score, b.Badge, b.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := r.Projections
	fmt.Fprintf(a.out, "\nPotential: %d-%d leads/month, $%d-$%d revenue/month\n%s\n",
		p.LeadsMin, p.LeadsMax, p.RevenueMin, p.RevenueMax, r.URL)
	return nil
}

func (a *app) reportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List every prospect's report link and audit status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			items, err := c.Reports(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPANY\tAUDIT\tSCORE\tURL")
			for _, e := range items {
				status, score := "pending", "-"
				if e.HasAudit {
					status = "published"
					score = fmt.Sprintf("%d/10", *e.Score)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CompanyName, status, score, e.URL)
			}
			return tw.Flush()
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream prospect, audit and asset changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Watch(ctx, func(ev events.Event) {
				fmt.Fprintf(a.out, "%s %s %s %s\n", ev.At.Format("15:04:05"), ev.Type, ev.Slug, ev.Label)
			})
		},
	}
}

func (a *app) setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Check that the API's tables and storage bucket exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(false)
			if err != nil {
				return err
			}
			st, err := c.SetupStatus(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range st.Tables {
				mark := "ok"
				if !t.Exists {
					mark = "missing"
				}
				fmt.Fprintf(a.out, "table %-10s %s\n", t.Name, mark)
			}
			if b := st.Bucket; b != nil {
				mark := "ok"
				switch {
				case b.Error != "":
					mark = "unreachable: " + b.Error
				case !b.Exists:
					mark = "missing"
				}
				fmt.Fprintf(a.out, "bucket %-9s %s\n", b.Name, mark)
			}
			if !st.Ready {
				return fmt.Errorf("setup incomplete: run `leadaudit migrate` against %s", st.Driver)
			}
			fmt.Fprintf(a.out, "ready (schema version %d)\n", st.MigrationVersion)
			return nil
		},
	}
}
