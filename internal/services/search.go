package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"
)

// SearchExtractor reconstruit une fiche produit à partir d'une recherche web
// (API compatible Serper). Utilisé quand le scraping direct échoue.
type SearchExtractor struct {
	api       *apiClient
	country   string
	maxImages int
}

func NewSearchExtractor(baseURL, apiKey string, timeout time.Duration) *SearchExtractor {
	return &SearchExtractor{
		api:       newAPIClient("search", baseURL, timeout, map[string]string{"X-API-KEY": apiKey}),
		country:   "in",
		maxImages: 5,
	}
}

type searchRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl,omitempty"`
	Num int    `json:"num,omitempty"`
}

type organicResult struct {
	Title   string  `json:"title"`
	Link    string  `json:"link"`
	Snippet string  `json:"snippet"`
	Rating  float64 `json:"rating"`
	Price   float64 `json:"price"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type imagesResponse struct {
	Images []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"images"`
}

func (s *SearchExtractor) Extract(ctx context.Context, productURL string) (models.ProductInfo, error) {
	q := searchQueryFromURL(productURL)

	raw, err := s.api.postJSON(ctx, "/search", searchRequest{Q: q, GL: s.country, Num: 5}, nil)
	if err != nil {
		return models.ProductInfo{}, err
	}
	var res searchResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.ProductInfo{}, apperrors.Transient("search", fmt.Errorf("réponse illisible: %w", err))
	}
	if len(res.Organic) == 0 {
		return models.ProductInfo{}, apperrors.Transient("search", errors.New("aucun résultat pour "+q))
	}

	best := res.Organic[0]
	info := models.ProductInfo{
		Title:     cleanTitle(best.Title),
		Currency:  "INR",
		Rating:    best.Rating,
		SourceURL: productURL,
		Source:    "search",
	}

	var snippets []string
	for _, r := range res.Organic {
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
		if info.Price == 0 {
			if r.Price > 0 {
				info.Price = r.Price
			} else if p := parsePrice(r.Snippet); p > 0 {
				info.Price = p
			}
		}
	}
	if len(snippets) > 2 {
		snippets = snippets[:2]
	}
	info.Description = strings.Join(snippets, " ")

	// Les images ne sont qu'un bonus : un échec ici ne fait pas échouer l'extraction.
	if imgRaw, err := s.api.postJSON(ctx, "/images", searchRequest{Q: info.Title, GL: s.country, Num: s.maxImages}, nil); err == nil {
		var imgs imagesResponse
		if json.Unmarshal(imgRaw, &imgs) == nil {
			for _, im := range imgs.Images {
				if im.ImageURL != "" && len(info.Images) < s.maxImages {
					info.Images = append(info.Images, im.ImageURL)
				}
			}
		}
	}
	if info.Images == nil {
		info.Images = []string{}
	}
	return info, nil
}

var slugStopWords = map[string]bool{"dp": true, "p": true, "product": true, "gp": true, "buy": true, "itm": true}

// searchQueryFromURL transforme le slug d'une URL produit en requête texte.
func searchQueryFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	best := ""
	for _, seg := range strings.Split(u.Path, "/") {
		if slugStopWords[strings.ToLower(seg)] {
			continue
		}
		if strings.ContainsAny(seg, "-_") && len(seg) > len(best) {
			best = seg
		}
	}
	if best == "" {
		return raw
	}

	words := strings.FieldsFunc(best, func(r rune) bool { return r == '-' || r == '_' || r == '+' })
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return strings.Join(words, " ") + " " + host
}

var titleSuffix = regexp.MustCompile(`\s*(?:[:|]|\s-\s)\s*(?:Amazon|Flipkart|Myntra|AJIO|Ajio|Nykaa|Buy\b).*$`)

func cleanTitle(t string) string {
	t = titleSuffix.ReplaceAllString(strings.TrimSpace(t), "")
	return strings.TrimSpace(t)
}

var pricePattern = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr|\$|€)\s?([0-9][0-9,]*(?:\.[0-9]+)?)`)

// parsePrice extrait le premier montant d'un texte ("₹1,299.00" → 1299).
func parsePrice(s string) float64 {
	m := pricePattern.FindStringSubmatch(s)
	if m == nil {
		return parseNumber(s)
	}
	return parseNumber(m[1])
}

var numberPattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

func parseNumber(s string) float64 {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
