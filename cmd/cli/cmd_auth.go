package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"leadaudit/internal/client"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			c, err := a.client(false)
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := client.SaveToken(a.tokenPath, c.BaseURL, res.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(a.out, "logged in as %s (expires %s)\n", res.User.Email, res.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and remove the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(false)
			if err != nil {
				return err
			}
			if c.Token != "" {
				if err := c.Logout(cmd.Context()); err != nil {
					fmt.Fprintf(a.out, "server logout failed: %v\n", err)
				}
			}
			if err := client.ClearToken(a.tokenPath); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage staff accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			users, err := c.Users(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Email, u.Name)
			}
			return tw.Flush()
		},
	}

	var email, password, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			u, err := c.CreateUser(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&password, "password", "", "password (8-72 chars)")
	create.Flags().StringVar(&name, "name", "", "display name")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			if err := c.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "deleted")
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}
