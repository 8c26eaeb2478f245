package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"codpage_back_end/internal/cod"

	"github.com/gin-gonic/gin"
)

// CODForm renvoie la configuration du formulaire (champs et règles) pour un prix donné.
func (h *Handler) CODForm(c *gin.Context) {
	price := 0.0
	if raw := c.Query("price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			badRequest(c, "Paramètre 'price' invalide")
			return
		}
		price = v
	}
	currency := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("currency", "INR")))

	c.JSON(http.StatusOK, gin.H{"success": true, "data": cod.Form(price, currency)})
}

// SubmitCODOrder valide le formulaire et renvoie l'identifiant de commande.
func (h *Handler) SubmitCODOrder(c *gin.Context) {
	var form cod.OrderForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "JSON invalide: "+err.Error())
		return
	}

	sub, err := h.cod.Submit(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}
