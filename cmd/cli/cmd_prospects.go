package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"leadaudit/internal/dashboard"
	"leadaudit/internal/report"
	"leadaudit/pkg/models"
)

func (a *app) loadDashboard(cmd *cobra.Command) (*dashboard.Dashboard, error) {
	c, err := a.client(true)
	if err != nil {
		return nil, err
	}
	d := dashboard.New(c)
	if err := d.Load(cmd.Context()); err != nil {
		return nil, err
	}
	if d.State() == dashboard.StateNeedsSetup {
		return nil, fmt.Errorf("database tables are missing: run `leadaudit migrate` or check `leadaudit setup`")
	}
	return d, nil
}

func (a *app) prospectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prospects",
		Aliases: []string{"p"},
		Short:   "List, create and delete prospects",
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List prospects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOMPANY\tSLUG\tCITY\tOWNER\tCREATED")
			for _, p := range d.Filter(query) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.CompanyName, p.CompanySlug, p.City, p.OwnerName, p.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "filter by company, city or owner")

	var in models.Prospect
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a prospect with a generated slug",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard(cmd)
			if err != nil {
				return err
			}
			p, err := d.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created %s (%s) slug=%s\n", p.CompanyName, p.ID, p.CompanySlug)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&in.CompanyName, "name", "", "company name (required)")
	f.StringVar(&in.OwnerName, "owner", "", "owner name")
	f.StringVar(&in.Email, "email", "", "email")
	f.StringVar(&in.Phone, "phone", "", "phone")
	f.StringVar(&in.Website, "website", "", "website")
	f.StringVar(&in.Instagram, "instagram", "", "instagram handle or URL")
	f.StringVar(&in.Facebook, "facebook", "", "facebook URL")
	f.StringVar(&in.GMBURL, "gmb-url", "", "Google Business Profile URL")
	f.StringVar(&in.City, "city", "", "city")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a prospect with its audit and assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			d, err := c.GetProspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(d)
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a prospect with its audit and screenshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.loadDashboard(cmd)
			if err != nil {
				return err
			}
			confirm := func(prompt string) bool {
				if yes {
					return true
				}
				fmt.Fprintf(a.out, "%s [y/N] ", prompt)
				line, _ := bufio.NewReader(a.in).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				return answer == "y" || answer == "yes"
			}
			ok, err := d.Delete(cmd.Context(), args[0], confirm)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.out, "cancelled")
				return nil
			}
			fmt.Fprintln(a.out, "Prospect deleted successfully")
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	url := &cobra.Command{
		Use:   "url <slug>",
		Short: "Print the public report URL for a slug",
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
			if r.State == report.StateNotFound {
				return fmt.Errorf("no prospect with slug %q", args[0])
			}
			fmt.Fprintln(a.out, r.URL)
			return nil
		},
	}

	cmd.AddCommand(list, create, show, del, url)
	return cmd
}
