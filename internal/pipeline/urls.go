package pipeline

import (
	"net/url"
	"strings"

	"codpage_back_end/internal/apperrors"
)

// SupportedDomains : boutiques dont on sait extraire une fiche produit.
var SupportedDomains = []string{
	"amazon.com",
	"amazon.in",
	"flipkart.com",
	"myntra.com",
	"ajio.com",
	"nykaa.com",
	"shopify.com",
	"woocommerce.com",
}

// ValidateProductURL indique si l'URL est en http(s) et pointe vers un domaine autorisé
// (le domaine lui-même ou un de ses sous-domaines).
func ValidateProductURL(raw string) bool {
	return CheckProductURL(raw) == nil
}

// CheckProductURL renvoie une *apperrors.UnsupportedInputError expliquant le refus.
func CheckProductURL(raw string) error {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return &apperrors.UnsupportedInputError{Input: raw, Reason: "URL invalide"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &apperrors.UnsupportedInputError{Input: raw, Reason: "schéma non supporté"}
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	for _, d := range SupportedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return &apperrors.UnsupportedInputError{Input: raw, Reason: "domaine non pris en charge"}
}
