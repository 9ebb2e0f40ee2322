package editor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadaudit/internal/auth"
	"leadaudit/internal/catalog"
	"leadaudit/internal/events"
	"leadaudit/internal/httperr"
	"leadaudit/pkg/models"
)

type Handler struct {
	Svc     *Service
	Catalog *catalog.Catalog
	Hub     *events.Hub
}

func NewHandler(svc *Service, hub *events.Hub) *Handler {
	return &Handler{Svc: svc, Catalog: catalog.Default(), Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/prospects/:id/editor", h.load)
	rg.POST("/audits", h.publish)
}

func (h *Handler) load(c *gin.Context) {
	d, err := h.Svc.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Store(c, "Prospect", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"prospect":    d.Prospect,
		"published":   d.Published,
		"audit":       d.Audit,
		"categories":  d.Categories(h.Catalog),
		"screenshots": d.Screenshots,
		"score":       d.Score(),
	})
}

type publishExtras struct {
	TopOpportunities *string `json:"top_opportunities"`
}

func (h *Handler) publish(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httperr.BadRequest(c, "invalid body")
		return
	}
	var a models.Audit
	var extras publishExtras
	if err := json.Unmarshal(body, &a); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}
	if err := json.Unmarshal(body, &extras); err != nil {
		httperr.BadRequest(c, "invalid json")
		return
	}

	author := ""
	if s := auth.SessionFrom(c); s != nil {
		author = s.Name
	}

	out, err := h.Svc.Publish(c.Request.Context(), PublishInput{Audit: a, TopOpportunities: extras.TopOpportunities}, author)
	switch {
	case errors.Is(err, ErrProspectRequired), errors.Is(err, ErrInvalidAudit):
		httperr.BadRequest(c, err.Error())
		return
	case err != nil:
		httperr.Store(c, "Prospect", err)
		return
	}

	score := out.Audit.Score
	h.Hub.Publish(events.Event{
		Type:       events.AuditPublished,
		ProspectID: out.Prospect.ID,
		Slug:       out.Prospect.CompanySlug,
		Score:      &score,
	})
	c.JSON(http.StatusOK, gin.H{"audit": out.Audit, "public_url": out.PublicURL})
}
