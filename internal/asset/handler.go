package asset

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadaudit/internal/events"
	"leadaudit/internal/httperr"
	"leadaudit/internal/storage"
)

type Handler struct {
	Svc *Service
	Hub *events.Hub
}

func NewHandler(svc *Service, hub *events.Hub) *Handler {
	return &Handler{Svc: svc, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.DELETE("/assets/:id", h.delete)
}

// multipart overhead allowed on top of the file size limit
const formSlack = 1 << 20

func (h *Handler) upload(c *gin.Context) {
	if h.Svc.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxBytes+formSlack)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrTooLarge.Error()})
			return
		}
		httperr.BadRequest(c, ErrMissingFields.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "cannot read file")
		return
	}
	defer f.Close()

	a, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		ProspectID:  c.PostForm("prospect_id"),
		CompanySlug: c.PostForm("company_slug"),
		Label:       c.PostForm("label"),
		Kind:        c.PostForm("kind"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrBadSlug),
			errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrSlugMismatch):
			httperr.BadRequest(c, err.Error())
		case errors.Is(err, ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, storage.ErrObjectExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			httperr.Store(c, "Prospect", err)
		}
		return
	}

	h.Hub.Publish(events.Event{Type: events.AssetUploaded, ProspectID: a.ProspectID, AssetID: a.ID, Label: a.Label})
	c.JSON(http.StatusOK, gin.H{"asset": a, "url": a.URL})
}

func (h *Handler) delete(c *gin.Context) {
	a, err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Store(c, "Asset", err)
		return
	}

	h.Hub.Publish(events.Event{Type: events.AssetDeleted, ProspectID: a.ProspectID, AssetID: a.ID, Label: a.Label})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
