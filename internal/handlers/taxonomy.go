package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/services"
)

type TaxonomyHandler struct {
	taxonomyService services.TaxonomyService
}

func NewTaxonomyHandler(taxonomyService services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

type createTaxonomyRequest struct {
	Name         string `json:"name" binding:"required"`
	Presentation string `json:"presentation"`
	Position     int    `json:"position"`
}

type updateTaxonomyRequest struct {
	Name         *string `json:"name"`
	Presentation *string `json:"presentation"`
	Position     *int    `json:"position"`
}

func (h *TaxonomyHandler) Create(c *gin.Context) {
	var req createTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	taxonomy, err := h.taxonomyService.Create(c.Request.Context(), services.CreateTaxonomyInput{
		Name:         req.Name,
		Presentation: req.Presentation,
		Position:     req.Position,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, gin.H{"taxonomy": taxonomy})
}

func (h *TaxonomyHandler) List(c *gin.Context) {
	taxonomies, err := h.taxonomyService.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxonomies": taxonomies})
}

func (h *TaxonomyHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	taxonomy, err := h.taxonomyService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxonomy": taxonomy})
}

func (h *TaxonomyHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	taxonomy, err := h.taxonomyService.Update(c.Request.Context(), id, services.UpdateTaxonomyInput{
		Name:         req.Name,
		Presentation: req.Presentation,
		Position:     req.Position,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxonomy": taxonomy})
}

func (h *TaxonomyHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.taxonomyService.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
