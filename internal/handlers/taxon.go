package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/resys-shop/backend/internal/services"
)

type TaxonHandler struct {
	taxonService          services.TaxonService
	classificationService services.ClassificationService
}

func NewTaxonHandler(taxonService services.TaxonService, classificationService services.ClassificationService) *TaxonHandler {
	return &TaxonHandler{
		taxonService:          taxonService,
		classificationService: classificationService,
	}
}

type createTaxonRequest struct {
	ParentID         *uuid.UUID `json:"parent_id"`
	Name             string     `json:"name" binding:"required"`
	Presentation     string     `json:"presentation"`
	Description      string     `json:"description"`
	Position         int        `json:"position"`
	HideFromNav      bool       `json:"hide_from_nav"`
	Automatic        bool       `json:"automatic"`
	RulesMatchPolicy string     `json:"rules_match_policy"`
	SortOrder        string     `json:"sort_order"`
}

type updateTaxonRequest struct {
	Name             *string    `json:"name"`
	Presentation     *string    `json:"presentation"`
	Description      *string    `json:"description"`
	Position         *int       `json:"position"`
	HideFromNav      *bool      `json:"hide_from_nav"`
	Automatic        *bool      `json:"automatic"`
	RulesMatchPolicy *string    `json:"rules_match_policy"`
	SortOrder        *string    `json:"sort_order"`
	ParentID         *uuid.UUID `json:"parent_id"`
}

type moveTaxonRequest struct {
	NewParentID uuid.UUID `json:"new_parent_id" binding:"required"`
	Position    int       `json:"position"`
}

type addRuleRequest struct {
	Type         string  `json:"type" binding:"required"`
	Value        string  `json:"value"`
	MatchPolicy  string  `json:"match_policy" binding:"required"`
	PropertyName *string `json:"property_name"`
}

func (h *TaxonHandler) Create(c *gin.Context) {
	taxonomyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req createTaxonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	taxon, err := h.taxonService.Create(c.Request.Context(), services.CreateTaxonInput{
		TaxonomyID:       taxonomyID,
		ParentID:         req.ParentID,
		Name:             req.Name,
		Presentation:     req.Presentation,
		Description:      req.Description,
		Position:         req.Position,
		HideFromNav:      req.HideFromNav,
		Automatic:        req.Automatic,
		RulesMatchPolicy: req.RulesMatchPolicy,
		SortOrder:        req.SortOrder,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, gin.H{"taxon": taxon})
}

func (h *TaxonHandler) ListByTaxonomy(c *gin.Context) {
	taxonomyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	taxons, err := h.taxonService.ListByTaxonomy(c.Request.Context(), taxonomyID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxons": taxons})
}

func (h *TaxonHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	taxon, err := h.taxonService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxon": taxon})
}

func (h *TaxonHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateTaxonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	taxon, err := h.taxonService.Update(c.Request.Context(), id, services.UpdateTaxonInput{
		Name:             req.Name,
		Presentation:     req.Presentation,
		Description:      req.Description,
		Position:         req.Position,
		HideFromNav:      req.HideFromNav,
		Automatic:        req.Automatic,
		RulesMatchPolicy: req.RulesMatchPolicy,
		SortOrder:        req.SortOrder,
		ParentID:         req.ParentID,
		ParentSet:        req.ParentID != nil,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxon": taxon})
}

func (h *TaxonHandler) Move(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req moveTaxonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	taxon, err := h.taxonService.Move(c.Request.Context(), id, req.NewParentID, req.Position)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"taxon": taxon})
}

func (h *TaxonHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.taxonService.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaxonHandler) AddRule(c *gin.Context) {
	taxonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req addRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rule, err := h.taxonService.AddRule(c.Request.Context(), taxonID, services.RuleInput{
		Type:         req.Type,
		Value:        req.Value,
		MatchPolicy:  req.MatchPolicy,
		PropertyName: req.PropertyName,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, gin.H{"rule": rule})
}

func (h *TaxonHandler) RemoveRule(c *gin.Context) {
	taxonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	ruleID, err := uuid.Parse(c.Param("rule_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.taxonService.RemoveRule(c.Request.Context(), taxonID, ruleID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Regenerate runs the classification sync inline and reports the applied
// diff. The same sync also runs asynchronously off the event bus; both paths
// converge because the operation is idempotent.
func (h *TaxonHandler) Regenerate(c *gin.Context) {
	taxonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	result, err := h.classificationService.Sync(c.Request.Context(), nil, taxonID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"added":   result.Added,
		"removed": result.Removed,
	})
}
