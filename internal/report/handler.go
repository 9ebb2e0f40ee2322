package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadaudit/internal/httperr"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/:slug", h.render)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports", h.index)
}

func (h *Handler) render(c *gin.Context) {
	r, err := h.Svc.Render(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httperr.Store(c, "Report", err)
		return
	}
	if r.State == StateNotFound {
		c.JSON(http.StatusNotFound, r)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) index(c *gin.Context) {
	items, err := h.Svc.Index(c.Request.Context())
	if err != nil {
		httperr.Store(c, "Report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": items})
}
