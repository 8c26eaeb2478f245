package handlers

import (
	"net/http"
	"strings"
	"sync"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/pipeline"

	"github.com/gin-gonic/gin"
)

const (
	minCountdownHours = 1
	maxCountdownHours = 168
)

// clampCountdown borne la durée demandée ; 0 laisse la valeur par défaut du pipeline.
func clampCountdown(c *models.Customizations) {
	switch {
	case c.CountdownHours == 0:
	case c.CountdownHours < minCountdownHours:
		c.CountdownHours = minCountdownHours
	case c.CountdownHours > maxCountdownHours:
		c.CountdownHours = maxCountdownHours
	}
}

// ValidateURL indique si l'URL produit appartient à un domaine supporté.
func (h *Handler) ValidateURL(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "JSON invalide: "+err.Error())
		return
	}

	body := gin.H{
		"success":          true,
		"valid":            true,
		"supportedDomains": pipeline.SupportedDomains,
		"message":          "URL supportée",
	}
	if err := pipeline.CheckProductURL(strings.TrimSpace(req.URL)); err != nil {
		body["valid"] = false
		body["message"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// progressLog collecte les événements d'un run pour la réponse HTTP.
type progressLog struct {
	mu     sync.Mutex
	events []models.GenerationProgress
}

func (l *progressLog) add(p models.GenerationProgress) {
	l.mu.Lock()
	l.events = append(l.events, p)
	l.mu.Unlock()
}

func (l *progressLog) list() []models.GenerationProgress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.GenerationProgress{}, l.events...)
}

// Generate exécute le pipeline de façon synchrone et renvoie la page et l'historique de progression.
func (h *Handler) Generate(c *gin.Context) {
	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "JSON invalide: "+err.Error())
		return
	}
	req.ProductURL = strings.TrimSpace(req.ProductURL)
	clampCountdown(&req.Customizations)

	progress := &progressLog{}
	data, err := h.pipeline.NewGenerator().Generate(c.Request.Context(), req, progress.add)
	if err != nil {
		body := errorBody(err)
		body["progress"] = progress.list()
		c.JSON(apperrors.HTTPStatus(err), body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     data,
		"progress": progress.list(),
	})
}

// Publish enregistre une page générée et renvoie son identifiant public.
func (h *Handler) Publish(c *gin.Context) {
	var req struct {
		Data models.LandingPageData `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "JSON invalide: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Data.Product.Title) == "" {
		verr := apperrors.NewValidationError()
		verr.Add("product.title", "product.title: le titre du produit est requis")
		respondError(c, verr)
		return
	}

	page, err := h.pages.Publish(c.Request.Context(), req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": page})
}

func (h *Handler) GetPage(c *gin.Context) {
	page, err := h.pages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}
