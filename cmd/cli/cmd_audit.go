package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"leadaudit/internal/catalog"
	"leadaudit/internal/client"
	"leadaudit/internal/editor"
	"leadaudit/pkg/models"
)

func draftFrom(view *client.EditorView) *editor.Draft {
	var assets []models.Asset
	labels := make([]string, 0, len(view.Screenshots))
	for label := range view.Screenshots {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		assets = append(assets, view.Screenshots[label]...)
	}
	var a *models.Audit
	if view.Published {
		a = &view.Audit
	}
	return editor.NewDraft(view.Prospect, a, assets)
}

// splitPair parses "key=value".
func splitPair(s string) (models.Category, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("expected category=value, got %q", s)
	}
	return models.Category(strings.TrimSpace(k)), v, nil
}

// parseRange parses "40-60".
func parseRange(s string) (lo, hi *int, err error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return nil, nil, fmt.Errorf("expected min-max, got %q", s)
	}
	l, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return nil, nil, fmt.Errorf("range min: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return nil, nil, fmt.Errorf("range max: %w", err)
	}
	return &l, &h, nil
}

func (a *app) printDraft(d *editor.Draft) error {
	s := d.Score()
	fmt.Fprintf(a.out, "%s (%s)  published=%t\n", d.Prospect.CompanyName, d.Prospect.CompanySlug, d.Published)
	fmt.Fprintf(a.out, "score %d/10 %s  overall %d/100\n\n", s.Coarse, s.CoarseLabel, s.Overall)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tRATING\tSCORE\tSHOTS\tNOTES")
	for _, row := range d.Categories(catalog.Default()) {
		score := "-"
		if row.Score != nil {
			score = strconv.Itoa(*row.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", row.Key, row.Rating, score, len(row.Screenshots), row.Notes)
	}
	return tw.Flush()
}

func (a *app) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and publish a prospect's audit",
	}

	show := &cobra.Command{
		Use:   "show <prospect-id>",
		Short: "Show the editor view of an audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			view, err := c.Editor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printDraft(draftFrom(view))
		},
	}

	var (
		ratings, notes, scores []string
		opportunities          string
		internalNotes          string
		completedBy            string
		leads, revenue         string
	)
	publish := &cobra.Command{
		Use:   "publish <prospect-id>",
		Short: "Apply edits and publish the audit",
		Example: `  leadaudit audit publish 3f2a --rating website_ux=pass --rating offer=warning \
    --notes offer="No offer above the fold" --opportunities $'Add an offer\nCollect reviews'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			view, err := c.Editor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d := draftFrom(view)

			for _, r := range ratings {
				k, v, err := splitPair(r)
				if err != nil {
					return err
				}
				if err := d.SetRating(k, v); err != nil {
					return err
				}
			}
			for _, n := range notes {
				k, v, err := splitPair(n)
				if err != nil {
					return err
				}
				if err := d.SetNotes(k, v); err != nil {
					return err
				}
			}
			for _, s := range scores {
				k, v, err := splitPair(s)
				if err != nil {
					return err
				}
				var score *int
				if v != "" {
					n, err := strconv.Atoi(v)
					if err != nil {
						return fmt.Errorf("score for %s: %w", k, err)
					}
					score = &n
				}
				if err := d.SetScore(k, score); err != nil {
					return err
				}
			}

			in := d.Input()
			if cmd.Flags().Changed("opportunities") {
				in.TopOpportunities = &opportunities
			}
			if cmd.Flags().Changed("internal-notes") {
				in.Audit.Notes = internalNotes
			}
			in.Audit.CompletedBy = completedBy
			if leads != "" {
				if in.Audit.PotentialLeadsMin, in.Audit.PotentialLeadsMax, err = parseRange(leads); err != nil {
					return err
				}
			}
			if revenue != "" {
				if in.Audit.PotentialRevenueMin, in.Audit.PotentialRevenueMax, err = parseRange(revenue); err != nil {
					return err
				}
			}

			res, err := c.PublishAudit(cmd.Context(), in.Audit, in.TopOpportunities)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "published: score %d/10\n%s\n", res.Audit.Score, res.PublicURL)
			return nil
		},
	}
	f := publish.Flags()
	f.StringArrayVar(&ratings, "rating", nil, "category=pass|warning|fail (repeatable)")
	f.StringArrayVar(&notes, "notes", nil, "category=text (repeatable)")
	f.StringArrayVar(&scores, "score", nil, "category=0-100, empty clears (repeatable)")
	f.StringVar(&opportunities, "opportunities", "", "top opportunities, one per line")
	f.StringVar(&internalNotes, "internal-notes", "", "notes kept off the public report")
	f.StringVar(&completedBy, "completed-by", "", "auditor name (default: signed-in user)")
	f.StringVar(&leads, "leads", "", "potential monthly leads as min-max")
	f.StringVar(&revenue, "revenue", "", "potential monthly revenue as min-max")

	cmd.AddCommand(show, publish)
	return cmd
}
