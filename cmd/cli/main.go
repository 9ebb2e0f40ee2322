package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"leadaudit/internal/client"
	"leadaudit/pkg/database"
	"leadaudit/pkg/utils"
)

type app struct {
	out       io.Writer
	in        io.Reader
	apiURL    string
	tokenPath string
	configDir string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	a := &app{out: out, in: in}

	root := &cobra.Command{
		Use:           "leadaudit",
		Short:         "Manage prospects, marketing audits and public reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (default: saved login or "+client.DefaultBaseURL+")")
	root.PersistentFlags().StringVar(&a.tokenPath, "token", client.DefaultTokenPath(), "token file path")
	root.PersistentFlags().StringVar(&a.configDir, "config", "", "directory holding config.yaml for local commands")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.usersCmd(),
		a.prospectsCmd(),
		a.auditCmd(),
		a.uploadCmd(),
		a.reportCmd(),
		a.reportsCmd(),
		a.watchCmd(),
		a.setupCmd(),
		a.migrateCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.guideCmd(),
	)
	return root
}

// client returns an API client using the saved token. API commands other
// than login require one.
func (a *app) client(requireToken bool) (*client.Client, error) {
	token, savedURL, err := client.ReadToken(a.tokenPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if requireToken && token == "" {
		return nil, errors.New("not logged in: run `leadaudit login` first")
	}
	base := a.apiURL
	if base == "" {
		base = savedURL
	}
	if base == "" {
		base = client.DefaultBaseURL
	}
	return client.New(base, token), nil
}

// openDB opens the configured database for local commands.
func (a *app) openDB(ctx context.Context) (*database.DB, utils.Config, error) {
	cfg, err := utils.LoadConfig(a.configDir)
	if err != nil {
		return nil, cfg, err
	}
	db, err := database.Open(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return nil, cfg, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, cfg, err
		}
	}
	return db, cfg, nil
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}
