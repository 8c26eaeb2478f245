package handlers

import (
	"errors"
	"log"
	"net/http"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/cache"
	"codpage_back_end/internal/cod"
	"codpage_back_end/internal/middleware"
	"codpage_back_end/internal/mockapi"
	"codpage_back_end/internal/pipeline"

	"github.com/gin-gonic/gin"
)

// Handler regroupe les dépendances des routes HTTP.
type Handler struct {
	api      *mockapi.API
	pipeline *pipeline.Pipeline
	pages    *cache.PageStore
	cod      *cod.Submitter
	limiter  *middleware.GenerateLimiter
}

func New(api *mockapi.API, p *pipeline.Pipeline, pages *cache.PageStore, submitter *cod.Submitter, limiter *middleware.GenerateLimiter) *Handler {
	return &Handler{api: api, pipeline: p, pages: pages, cod: submitter, limiter: limiter}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errorBody construit la réponse d'erreur commune { success, message, errors? }.
func errorBody(err error) gin.H {
	body := gin.H{"success": false, "message": err.Error()}
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		body["errors"] = verr.Fields
	}
	return body
}

func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, errorBody(err))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
