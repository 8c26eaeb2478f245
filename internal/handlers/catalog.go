package handlers

import (
	"context"
	"net/http"
	"strings"

	"codpage_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// Les routes users/products/orders partagent la même forme : ces helpers
// génériques font le binding et la mise en forme de la réponse.

func bindQuery(c *gin.Context) (models.QueryParams, bool) {
	var params models.QueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Paramètres de requête invalides: "+err.Error())
		return params, false
	}
	return params, true
}

func listHandler[T any](list func(context.Context, models.QueryParams) (models.ListResponse[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, ok := bindQuery(c)
		if !ok {
			return
		}
		res, err := list(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func getHandler[T any](get func(context.Context, string) (models.Response[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func createHandler[In, T any](create func(context.Context, In) (models.Response[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "JSON invalide: "+err.Error())
			return
		}
		res, err := create(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func updateHandler[P, T any](update func(context.Context, string, P) (models.Response[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch P
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, "JSON invalide: "+err.Error())
			return
		}
		res, err := update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func deleteHandler[T any](remove func(context.Context, string) (models.Response[*T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := remove(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// --- Users ---

func (h *Handler) ListUsers() gin.HandlerFunc  { return listHandler(h.api.Users.List) }
func (h *Handler) GetUser() gin.HandlerFunc    { return getHandler(h.api.Users.Get) }
func (h *Handler) CreateUser() gin.HandlerFunc { return createHandler(h.api.Users.Create) }
func (h *Handler) UpdateUser() gin.HandlerFunc { return updateHandler(h.api.Users.Update) }
func (h *Handler) DeleteUser() gin.HandlerFunc { return deleteHandler(h.api.Users.Delete) }

// --- Products ---

func (h *Handler) ListProducts() gin.HandlerFunc  { return listHandler(h.api.Products.List) }
func (h *Handler) GetProduct() gin.HandlerFunc    { return getHandler(h.api.Products.Get) }
func (h *Handler) CreateProduct() gin.HandlerFunc { return createHandler(h.api.Products.Create) }
func (h *Handler) UpdateProduct() gin.HandlerFunc { return updateHandler(h.api.Products.Update) }
func (h *Handler) DeleteProduct() gin.HandlerFunc { return deleteHandler(h.api.Products.Delete) }

// SearchProducts : recherche plein texte (?q=), Elasticsearch d'abord puis moteur interne.
func (h *Handler) SearchProducts(c *gin.Context) {
	params, ok := bindQuery(c)
	if !ok {
		return
	}
	params.Search = strings.TrimSpace(c.Query("q"))
	if params.Search == "" {
		badRequest(c, "Paramètre 'q' requis")
		return
	}

	res, err := h.api.Products.FullTextSearch(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Orders ---

func (h *Handler) ListOrders() gin.HandlerFunc  { return listHandler(h.api.Orders.List) }
func (h *Handler) GetOrder() gin.HandlerFunc    { return getHandler(h.api.Orders.Get) }
func (h *Handler) CreateOrder() gin.HandlerFunc { return createHandler(h.api.Orders.Create) }
func (h *Handler) UpdateOrder() gin.HandlerFunc { return updateHandler(h.api.Orders.Update) }
func (h *Handler) DeleteOrder() gin.HandlerFunc { return deleteHandler(h.api.Orders.Delete) }
