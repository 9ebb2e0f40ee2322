package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadaudit/pkg/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStore(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "schema missing",
			err:        errors.New("list prospects: no such table: prospects"),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]any{"error": "database tables are missing", "code": "SCHEMA_MISSING", "setup": "/setup/status"},
		},
		{
			name:       "not found",
			err:        fmt.Errorf("get prospect: %w", database.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"error": "Prospect not found"},
		},
		{
			name:       "raw store error",
			err:        errors.New("insert prospect: disk I/O error"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "insert prospect: disk I/O error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Store(c, "Prospect", tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
