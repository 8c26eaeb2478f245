package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"codpage_back_end/internal/models"

	"golang.org/x/sync/errgroup"
)

const systemPrompt = "You are an expert e-commerce copywriter and designer for Indian cash-on-delivery stores. " +
	"Always answer with one valid JSON object and nothing else."

// ask interroge le LLM et décode strictement sa réponse. Une erreur de transport
// interrompt le pipeline ; une réponse inexploitable donne la valeur par défaut.
func ask[T any](ctx context.Context, llm Completer, stage, prompt string, check func(*T) error, fallback func() T) (T, error) {
	if llm == nil {
		return fallback(), nil
	}

	raw, err := llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", stage, err)
	}

	v, err := decodeStrict(raw, check)
	if err != nil {
		log.Printf("⚠️ Réponse LLM inexploitable pour %s (%v), valeurs par défaut utilisées", stage, err)
		return fallback(), nil
	}
	return v, nil
}

// decodeStrict extrait l'objet JSON de la réponse (éventuellement entouré de texte ou
// de balises markdown), le décode dans T puis vérifie les champs obligatoires.
func decodeStrict[T any](raw string, check func(*T) error) (T, error) {
	var out T
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return out, errors.New("aucun objet JSON dans la réponse")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("JSON invalide: %w", err)
	}
	if check != nil {
		if err := check(&out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func productBrief(p models.ProductInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if p.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	}
	if p.Price > 0 {
		fmt.Fprintf(&b, "Price: %.2f %s\n", p.Price, p.Currency)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncateRunes(p.Description, 1500))
	}
	if len(p.Features) > 0 {
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(p.Features, "; "))
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// --- Classification ---

func (p *Pipeline) classify(ctx context.Context, product models.ProductInfo) (models.ProductClassification, error) {
	prompt := productBrief(product) + `
Classify this product. Return JSON:
{"category": string, "subcategory": string, "targetAudience": string,
 "priceRange": "budget" | "mid-range" | "premium" | "luxury",
 "keywords": [string], "tone": string}`

	return ask(ctx, p.cfg.LLM, "classification", prompt, checkClassification, func() models.ProductClassification {
		return DefaultClassification(product)
	})
}

func checkClassification(c *models.ProductClassification) error {
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
	c.PriceRange = strings.ToLower(strings.TrimSpace(c.PriceRange))
	if c.Category == "" {
		return errors.New("category manquant")
	}
	if !validPriceRange(c.PriceRange) {
		return fmt.Errorf("priceRange invalide: %q", c.PriceRange)
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	return nil
}

// --- Thème ---

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (p *Pipeline) design(ctx context.Context, product models.ProductInfo, class models.ProductClassification, cust models.Customizations) (models.DesignTheme, error) {
	prompt := productBrief(product) + fmt.Sprintf(`Category: %s
Price range: %s
Design a landing page theme that converts. Colors must be 6-digit hex codes. Return JSON:
{"primaryColor": string, "secondaryColor": string, "accentColor": string,
 "backgroundColor": string, "textColor": string,
 "fontHeading": string, "fontBody": string, "style": string}`, class.Category, class.PriceRange)

	theme, err := ask(ctx, p.cfg.LLM, "design", prompt, checkTheme, func() models.DesignTheme {
		return DefaultTheme(class.Category)
	})
	if err != nil {
		return theme, err
	}
	if hexColor.MatchString(cust.PrimaryColor) {
		theme.PrimaryColor = cust.PrimaryColor
	}
	return theme, nil
}

func checkTheme(t *models.DesignTheme) error {
	colors := map[string]string{
		"primaryColor":    t.PrimaryColor,
		"secondaryColor":  t.SecondaryColor,
		"accentColor":     t.AccentColor,
		"backgroundColor": t.BackgroundColor,
		"textColor":       t.TextColor,
	}
	for name, c := range colors {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("%s invalide: %q", name, c)
		}
	}
	if strings.TrimSpace(t.FontHeading) == "" || strings.TrimSpace(t.FontBody) == "" {
		return errors.New("polices manquantes")
	}
	return nil
}

// --- Contenu ---

func (p *Pipeline) content(ctx context.Context, product models.ProductInfo, class models.ProductClassification, cust models.Customizations) (models.GeneratedContent, error) {
	language := cust.Language
	if language == "" {
		language = "English"
	}
	tone := cust.Tone
	if tone == "" {
		tone = class.Tone
	}
	if tone == "" {
		tone = "friendly"
	}

	prompt := productBrief(product) + fmt.Sprintf(`Target audience: %s
Write persuasive landing page copy in %s with a %s tone. Payment is cash on delivery. Return JSON:
{"headline": string, "subheadline": string, "description": string,
 "benefits": [string], "callToAction": string, "urgencyText": string,
 "testimonials": [{"name": string, "text": string, "rating": number}],
 "faqs": [{"question": string, "answer": string}], "guarantee": string}`, class.TargetAudience, language, tone)

	return ask(ctx, p.cfg.LLM, "contenu", prompt, checkContent, func() models.GeneratedContent {
		return DefaultContent(product, class)
	})
}

func checkContent(c *models.GeneratedContent) error {
	switch {
	case strings.TrimSpace(c.Headline) == "":
		return errors.New("headline manquant")
	case strings.TrimSpace(c.Description) == "":
		return errors.New("description manquante")
	case strings.TrimSpace(c.CallToAction) == "":
		return errors.New("callToAction manquant")
	case len(c.Benefits) == 0:
		return errors.New("benefits vide")
	}
	if c.Testimonials == nil {
		c.Testimonials = []models.Testimonial{}
	}
	if c.FAQs == nil {
		c.FAQs = []models.FAQ{}
	}
	return nil
}

// --- Images ---

// processImages traite au plus MaxImages images en parallèle. Une image en échec
// garde son URL d'origine pour toutes ses variantes ; l'ordre d'entrée est conservé.
func (p *Pipeline) processImages(ctx context.Context, product models.ProductInfo) []models.ProcessedImage {
	srcs := product.Images
	if len(srcs) > p.cfg.MaxImages {
		srcs = srcs[:p.cfg.MaxImages]
	}
	out := make([]models.ProcessedImage, len(srcs))

	var g errgroup.Group
	g.SetLimit(p.cfg.ImageConcurrency)
	for i, src := range srcs {
		alt := fmt.Sprintf("%s - image %d", product.Title, i+1)
		out[i] = originalImage(src, alt)
		if p.cfg.Images == nil {
			continue
		}
		g.Go(func() error {
			img, err := p.cfg.Images.Process(ctx, src, alt)
			if err != nil {
				log.Printf("⚠️ Image %d conservée telle quelle (%v)", i+1, err)
				return nil
			}
			out[i] = fillImage(img, src, alt)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func originalImage(src, alt string) models.ProcessedImage {
	return models.ProcessedImage{Original: src, BackgroundRemoved: src, Optimized: src, Thumbnail: src, Alt: alt}
}

func fillImage(img models.ProcessedImage, src, alt string) models.ProcessedImage {
	img.Original = src
	if img.BackgroundRemoved == "" {
		img.BackgroundRemoved = src
	}
	if img.Optimized == "" {
		img.Optimized = src
	}
	if img.Thumbnail == "" {
		img.Thumbnail = src
	}
	if img.Alt == "" {
		img.Alt = alt
	}
	return img
}
