// Package setup reports whether the database schema and blob bucket are in
// place.
package setup

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadaudit/pkg/database"
)

// Tables are the tables the API needs.
var Tables = []string{"users", "prospects", "audits", "assets"}

// BucketChecker is implemented by blob stores that can probe their bucket.
type BucketChecker interface {
	Bucket() string
	BucketExists(ctx context.Context) (bool, error)
}

type TableCheck struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

type BucketCheck struct {
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`
	Exists    bool   `json:"exists"`
	Error     string `json:"error,omitempty"`
}

type Status struct {
	Ready            bool         `json:"ready"`
	Driver           string       `json:"driver"`
	MigrationVersion int64        `json:"migration_version"`
	Tables           []TableCheck `json:"tables"`
	Bucket           *BucketCheck `json:"bucket,omitempty"`
}

type Checker struct {
	DB     *database.DB
	Bucket BucketChecker
}

func NewChecker(db *database.DB, bucket BucketChecker) *Checker {
	return &Checker{DB: db, Bucket: bucket}
}

func (c *Checker) Status(ctx context.Context) Status {
	st := Status{Ready: true, Driver: c.DB.Driver}

	for _, name := range Tables {
		tc := TableCheck{Name: name}
		_, err := c.DB.ExecContext(ctx, `SELECT 1 FROM `+name+` LIMIT 1`)
		switch {
		case err == nil:
			tc.Exists = true
		case database.IsSchemaMissing(err):
		default:
			tc.Error = err.Error()
		}
		if !tc.Exists {
			st.Ready = false
		}
		st.Tables = append(st.Tables, tc)
	}

	if st.Ready {
		if v, err := database.MigrationVersion(ctx, c.DB); err == nil {
			st.MigrationVersion = v
		}
	}

	if c.Bucket != nil {
		bc := &BucketCheck{Name: c.Bucket.Bucket()}
		ok, err := c.Bucket.BucketExists(ctx)
		if err != nil {
			bc.Error = err.Error()
		} else {
			bc.Reachable = true
			bc.Exists = ok
		}
		if !bc.Exists {
			st.Ready = false
		}
		st.Bucket = bc
	}
	return st
}

func (c *Checker) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/setup/status", c.status)
}

func (c *Checker) status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.Status(ctx.Request.Context()))
}
