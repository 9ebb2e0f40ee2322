// Package httperr writes the JSON error bodies shared by every handler.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leadaudit/pkg/database"
	"leadaudit/pkg/logger"
)

const (
	CodeSchemaMissing = "SCHEMA_MISSING"
	CodeSlugExhausted = "SLUG_EXHAUSTED"
	CodeSlugTaken     = "SLUG_TAKEN"
	SetupPath         = "/setup/status"
)

// NotFound writes 404 {"error":"<entity> not found"}.
func NotFound(c *gin.Context, entity string) {
	c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// Store maps a repository error: missing tables become 503 with a setup
// pointer, not-found becomes 404 for entity, anything else is a 500
// carrying the raw message.
func Store(c *gin.Context, entity string, err error) {
	switch {
	case database.IsSchemaMissing(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "database tables are missing",
			"code":  CodeSchemaMissing,
			"setup": SetupPath,
		})
	case errors.Is(err, database.ErrNotFound):
		NotFound(c, entity)
	default:
		logger.WithContext(c.Request.Context()).Error("store error",
			zap.String("entity", entity),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
