package prospect

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadaudit/internal/events"
	"leadaudit/internal/httperr"
	"leadaudit/internal/slug"
	"leadaudit/pkg/models"
)

type Handler struct {
	Svc *Service
	Hub *events.Hub
}

func NewHandler(svc *Service, hub *events.Hub) *Handler {
	return &Handler{Svc: svc, Hub: hub}
}

// RegisterPublicRoutes mounts the read-only lookup used by public reports.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/prospects/slug/:slug", h.getBySlug)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prospects", h.list)
	rg.GET("/prospects/check-slug/:slug", h.checkSlug)
	rg.GET("/prospects/:id", h.getByID)
	rg.POST("/prospects", h.create)
	rg.PUT("/prospects/:id", h.update)
	rg.DELETE("/prospects/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.Prospects.List(c.Request.Context(), ListQuery{Q: c.Query("q")})
	if err != nil {
		httperr.Store(c, "Prospect", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prospects": items})
}

func (h *Handler) respondDetails(c *gin.Context, p *models.Prospect, err error) {
	if err != nil {
		httperr.Store(c, "Prospect", err)
		return
	}
	if p == nil {
		httperr.NotFound(c, "Prospect")
		return
	}
	d, err := h.Svc.Details(c.Request.Context(), p)
	if err != nil {
		httperr.Store(c, "Prospect", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) getByID(c *gin.Context) {
	p, err := h.Svc.Prospects.GetByID(c.Request.Context(), c.Param("id"))
	h.respondDetails(c, p, err)
}

func (h *Handler) getBySlug(c *gin.Context) {
	p, err := h.Svc.Prospects.GetBySlug(c.Request.Context(), c.Param("slug"))
	h.respondDetails(c, p, err)
}

func (h *Handler) checkSlug(c *gin.Context) {
	s := c.Param("slug")
	if !slug.Valid(s) {
		httperr.BadRequest(c, ErrInvalidSlug.Error())
		return
	}
	exists, err := h.Svc.Prospects.SlugExists(c.Request.Context(), s)
	if err != nil {
		httperr.Store(c, "Prospect", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNameNoSlug),
		errors.Is(err, ErrInvalidSlug), errors.Is(err, ErrSlugImmutable):
		httperr.BadRequest(c, err.Error())
	case errors.Is(err, ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": httperr.CodeSlugTaken})
	case errors.Is(err, slug.ErrSlugExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": httperr.CodeSlugExhausted})
	default:
		httperr.Store(c, "Prospect", err)
	}
}

func (h *Handler) create(c *gin.Context) {
	var req models.Prospect
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.Hub.Publish(events.Event{Type: events.ProspectCreated, ProspectID: p.ID, Slug: p.CompanySlug})
	c.JSON(http.StatusOK, gin.H{"prospect": p})
}

func (h *Handler) update(c *gin.Context) {
	var patch models.ProspectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}

	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if p == nil {
		httperr.NotFound(c, "Prospect")
		return
	}

	h.Hub.Publish(events.Event{Type: events.ProspectUpdated, ProspectID: p.ID, Slug: p.CompanySlug})
	c.JSON(http.StatusOK, gin.H{"prospect": p})
}

func (h *Handler) delete(c *gin.Context) {
	p, err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Store(c, "Prospect", err)
		return
	}

	h.Hub.Publish(events.Event{Type: events.ProspectDeleted, ProspectID: p.ID, Slug: p.CompanySlug})
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Prospect deleted successfully",
		"deletedProspect": p,
	})
}
