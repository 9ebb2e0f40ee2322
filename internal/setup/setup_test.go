package setup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadaudit/internal/storage"
	"leadaudit/pkg/database/dbtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type downBucket struct{}

func (downBucket) Bucket() string { return "screens" }
func (downBucket) BucketExists(context.Context) (bool, error) {
	return false, errors.New("connection refused")
}

func TestStatusReady(t *testing.T) {
	c := NewChecker(dbtest.New(t), storage.NewMemoryStore("http://b", "screens"))
	st := c.Status(context.Background())

	assert.True(t, st.Ready)
	assert.Equal(t, int64(1), st.MigrationVersion)
	require.Len(t, st.Tables, len(Tables))
	for _, tc := range st.Tables {
		assert.True(t, tc.Exists, tc.Name)
	}
	require.NotNil(t, st.Bucket)
	assert.True(t, st.Bucket.Exists)
}

func TestStatusMissingTables(t *testing.T) {
	c := NewChecker(dbtest.Empty(t), nil)
	st := c.Status(context.Background())

	assert.False(t, st.Ready)
	for _, tc := range st.Tables {
		assert.False(t, tc.Exists, tc.Name)
		assert.Empty(t, tc.Error, tc.Name)
	}
	assert.Nil(t, st.Bucket)
}

func TestStatusBucketDown(t *testing.T) {
	c := NewChecker(dbtest.New(t), downBucket{})
	r := gin.New()
	c.RegisterRoutes(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/setup/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
	assert.Contains(t, w.Body.String(), `"error":"connection refused"`)
}
