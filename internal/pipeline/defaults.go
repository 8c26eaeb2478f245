package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"codpage_back_end/internal/models"
)

// Valeurs par défaut : fonctions pures des informations déjà connues,
// utilisées quand le LLM répond à côté.

const (
	PriceBudget   = "budget"
	PriceMidRange = "mid-range"
	PricePremium  = "premium"
	PriceLuxury   = "luxury"
)

func validPriceRange(r string) bool {
	switch r {
	case PriceBudget, PriceMidRange, PricePremium, PriceLuxury:
		return true
	}
	return false
}

// PriceRange classe un prix en roupies. Un prix inconnu est considéré milieu de gamme.
func PriceRange(price float64) string {
	switch {
	case price <= 0:
		return PriceMidRange
	case price < 500:
		return PriceBudget
	case price < 2000:
		return PriceMidRange
	case price < 10000:
		return PricePremium
	default:
		return PriceLuxury
	}
}

type categoryHint struct {
	category string
	words    []string
	tone     string
	audience string
}

// Ordre significatif : la première catégorie qui correspond l'emporte.
var categoryHints = []categoryHint{
	{"electronics", []string{"phone", "earbuds", "earphone", "headphone", "smartwatch", "watch", "laptop", "charger", "speaker", "camera", "bluetooth", "power bank", "tablet"}, "confident", "Tech-savvy shoppers"},
	{"beauty", []string{"serum", "cream", "lipstick", "makeup", "skin", "shampoo", "perfume", "face wash", "moisturizer", "hair oil"}, "caring", "Beauty and self-care enthusiasts"},
	{"fashion", []string{"shirt", "kurta", "dress", "saree", "jeans", "shoe", "sneaker", "jacket", "kurti", "handbag", "sandal"}, "trendy", "Style-conscious shoppers"},
	{"home", []string{"kitchen", "bedsheet", "lamp", "decor", "cookware", "furniture", "curtain", "pillow", "bottle"}, "warm", "Homemakers and families"},
	{"sports", []string{"yoga", "fitness", "gym", "dumbbell", "cricket", "football", "cycling", "treadmill"}, "energetic", "Fitness enthusiasts"},
}

var generalHint = categoryHint{category: "general", tone: "friendly", audience: "Online shoppers across India"}

func guessCategory(p models.ProductInfo) categoryHint {
	text := strings.ToLower(p.Title + " " + p.Description)
	for _, h := range categoryHints {
		for _, w := range h.words {
			if strings.Contains(text, w) {
				return h
			}
		}
	}
	return generalHint
}

func titleKeywords(title string, max int) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == max {
			break
		}
	}
	return out
}

func DefaultClassification(p models.ProductInfo) models.ProductClassification {
	h := guessCategory(p)
	return models.ProductClassification{
		Category:       h.category,
		TargetAudience: h.audience,
		PriceRange:     PriceRange(p.Price),
		Keywords:       titleKeywords(p.Title, 5),
		Tone:           h.tone,
	}
}

var themes = map[string]models.DesignTheme{
	"electronics": {PrimaryColor: "#1E40AF", SecondaryColor: "#0F172A", AccentColor: "#F59E0B", BackgroundColor: "#F8FAFC", TextColor: "#0F172A", FontHeading: "Poppins", FontBody: "Inter", Style: "modern"},
	"beauty":      {PrimaryColor: "#DB2777", SecondaryColor: "#831843", AccentColor: "#F9A8D4", BackgroundColor: "#FFF1F2", TextColor: "#3F3F46", FontHeading: "Playfair Display", FontBody: "Lato", Style: "elegant"},
	"fashion":     {PrimaryColor: "#7C3AED", SecondaryColor: "#1F2937", AccentColor: "#F472B6", BackgroundColor: "#FFFFFF", TextColor: "#111827", FontHeading: "Montserrat", FontBody: "Open Sans", Style: "bold"},
	"home":        {PrimaryColor: "#B45309", SecondaryColor: "#78350F", AccentColor: "#10B981", BackgroundColor: "#FFFBEB", TextColor: "#292524", FontHeading: "Merriweather", FontBody: "Nunito", Style: "warm"},
	"sports":      {PrimaryColor: "#16A34A", SecondaryColor: "#14532D", AccentColor: "#F97316", BackgroundColor: "#F0FDF4", TextColor: "#1C1917", FontHeading: "Oswald", FontBody: "Roboto", Style: "energetic"},
	"general":     {PrimaryColor: "#EA580C", SecondaryColor: "#1F2937", AccentColor: "#FACC15", BackgroundColor: "#FFFFFF", TextColor: "#111827", FontHeading: "Poppins", FontBody: "Roboto", Style: "clean"},
}

// DefaultTheme renvoie le thème associé à la catégorie, ou le thème général.
func DefaultTheme(category string) models.DesignTheme {
	if t, ok := themes[strings.ToLower(category)]; ok {
		return t
	}
	return themes["general"]
}

func DefaultContent(p models.ProductInfo, c models.ProductClassification) models.GeneratedContent {
	title := p.Title
	if title == "" {
		title = "This product"
	}

	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = fmt.Sprintf("Discover %s, carefully selected for quality and value. Order today and pay only when it reaches your door.", title)
	}

	benefits := []string{}
	for _, f := range p.Features {
		if f = strings.TrimSpace(f); f != "" && len(benefits) < 4 {
			benefits = append(benefits, f)
		}
	}
	if len(benefits) == 0 {
		benefits = []string{
			"Cash on delivery available",
			"Fast delivery across India",
			"Easy 7-day returns",
			"Quality checked before dispatch",
		}
	}

	subheadline := "Pay on delivery. No advance payment needed."
	if c.PriceRange == PricePremium || c.PriceRange == PriceLuxury {
		subheadline = "Premium quality, delivered to your door. Pay on delivery."
	}

	return models.GeneratedContent{
		Headline:     title,
		Subheadline:  subheadline,
		Description:  description,
		Benefits:     benefits,
		CallToAction: "Order Now - Pay on Delivery",
		UrgencyText:  "Limited stock available. Order before the offer ends!",
		Testimonials: []models.Testimonial{
			{Name: "Priya S.", Text: "Exactly as described and delivered quickly. Very happy!", Rating: 5},
			{Name: "Rahul M.", Text: "Great value for money. Cash on delivery made it easy.", Rating: 5},
			{Name: "Anjali K.", Text: "Good quality, I would order again.", Rating: 4},
		},
		FAQs: []models.FAQ{
			{Question: "How do I pay?", Answer: "You pay in cash when the order is delivered. No advance payment is required."},
			{Question: "How long does delivery take?", Answer: "Orders are usually delivered within 3 to 7 working days."},
			{Question: "Can I return the product?", Answer: "Yes, returns are accepted within 7 days of delivery."},
		},
		Guarantee: "7-day easy return guarantee",
	}
}

var countdownTitles = map[models.UrgencyLevel]string{
	models.UrgencyLow:    "Limited Time Offer",
	models.UrgencyMedium: "Hurry! Offer Ends Soon",
	models.UrgencyHigh:   "Last Chance! Almost Sold Out",
}

// Countdown : fin = now + heures demandées (24 par défaut). Les bornes [1,168]
// sont appliquées par l'appelant. Une urgence inconnue vaut medium.
func Countdown(now time.Time, cust models.Customizations) models.CountdownTimer {
	hours := cust.CountdownHours
	if hours <= 0 {
		hours = 24
	}
	level := cust.UrgencyLevel
	if _, ok := countdownTitles[level]; !ok {
		level = models.UrgencyMedium
	}
	return models.CountdownTimer{
		EndTime:      now.Add(time.Duration(hours) * time.Hour),
		Title:        countdownTitles[level],
		UrgencyLevel: level,
		Enabled:      true,
	}
}
