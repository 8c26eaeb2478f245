package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"codpage_back_end/internal/cod"
	"codpage_back_end/internal/models"
)

// Extractor récupère la fiche d'un produit à partir de son URL.
type Extractor interface {
	Extract(ctx context.Context, productURL string) (models.ProductInfo, error)
}

// Completer interroge un LLM et renvoie sa réponse brute (JSON attendu).
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ImageProcessor détoure et publie une image.
type ImageProcessor interface {
	Process(ctx context.Context, imageURL, alt string) (models.ProcessedImage, error)
}

// ProgressFunc reçoit l'avancement, de façon synchrone, depuis la goroutine de Generate.
type ProgressFunc func(models.GenerationProgress)

// Config : collaborateurs du pipeline. Un LLM ou un ImageProcessor nil
// revient à utiliser les valeurs par défaut ou les images d'origine.
type Config struct {
	Primary  Extractor
	Fallback Extractor
	LLM      Completer
	Images   ImageProcessor

	MaxImages        int
	ImageConcurrency int
	Now              func() time.Time
}

// Pipeline est partagé par toutes les requêtes ; il ne garde aucun état de run.
type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 6
	}
	if cfg.ImageConcurrency <= 0 {
		cfg.ImageConcurrency = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{cfg: cfg}
}

// Generator suit les runs d'un même client (une connexion websocket par exemple) :
// chaque appel à Generate remplace le précédent et les callbacks de l'ancien run sont ignorés.
type Generator struct {
	pipeline *Pipeline
	run      atomic.Uint64
}

func (p *Pipeline) NewGenerator() *Generator {
	return &Generator{pipeline: p}
}

// Generate exécute toutes les étapes et renvoie la page complète, ou une erreur
// sans aucun résultat partiel.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest, report ProgressFunc) (*models.LandingPageData, error) {
	token := g.run.Add(1)
	t := &tracker{
		current: func() bool { return g.run.Load() == token },
		report:  report,
	}

	if err := CheckProductURL(req.ProductURL); err != nil {
		return nil, err
	}

	data, err := g.pipeline.run(ctx, req, t)
	if err != nil {
		log.Printf("❌ Génération échouée pour %s: %v", req.ProductURL, err)
		t.fail(err)
		return nil, err
	}
	log.Printf("✅ Landing page générée pour %s", req.ProductURL)
	return data, nil
}

func (p *Pipeline) run(ctx context.Context, req models.GenerationRequest, t *tracker) (*models.LandingPageData, error) {
	step := func(s models.GenerationStep, progress int, msg string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.emit(s, progress, msg)
		return nil
	}
	cust := req.Customizations

	if err := step(models.StepStarting, 0, "Démarrage de la génération"); err != nil {
		return nil, err
	}

	if err := step(models.StepExtracting, 10, "Extraction des informations produit"); err != nil {
		return nil, err
	}
	product, err := p.extract(ctx, req.ProductURL)
	if err != nil {
		return nil, err
	}

	if err := step(models.StepClassifying, 25, "Analyse du produit"); err != nil {
		return nil, err
	}
	class, err := p.classify(ctx, product)
	if err != nil {
		return nil, err
	}

	if err := step(models.StepDesigning, 40, "Création du thème graphique"); err != nil {
		return nil, err
	}
	theme, err := p.design(ctx, product, class, cust)
	if err != nil {
		return nil, err
	}

	if err := step(models.StepContent, 55, "Rédaction du contenu"); err != nil {
		return nil, err
	}
	content, err := p.content(ctx, product, class, cust)
	if err != nil {
		return nil, err
	}

	if err := step(models.StepImages, 70, "Traitement des images"); err != nil {
		return nil, err
	}
	images := p.processImages(ctx, product)

	if err := step(models.StepCountdown, 85, "Configuration du compte à rebours"); err != nil {
		return nil, err
	}
	now := p.cfg.Now()
	countdown := Countdown(now, cust)

	if err := step(models.StepForm, 95, "Préparation du formulaire de commande"); err != nil {
		return nil, err
	}
	form := cod.Form(product.Price, product.Currency)

	data := &models.LandingPageData{
		Product:        product,
		Classification: class,
		Theme:          theme,
		Content:        content,
		Images:         images,
		Countdown:      countdown,
		Form:           form,
		SourceURL:      req.ProductURL,
		GeneratedAt:    now,
	}
	t.emit(models.StepCompleted, 100, "Landing page prête")
	return data, nil
}

// extract tente le scraper puis, sur n'importe quel échec, l'extracteur de secours.
func (p *Pipeline) extract(ctx context.Context, productURL string) (models.ProductInfo, error) {
	var primaryErr error
	if p.cfg.Primary != nil {
		info, err := p.cfg.Primary.Extract(ctx, productURL)
		if err == nil && strings.TrimSpace(info.Title) == "" {
			err = errors.New("fiche produit sans titre")
		}
		if err == nil {
			return normalizeProduct(info, productURL), nil
		}
		log.Printf("⚠️ Extraction principale échouée (%v), bascule sur la recherche", err)
		primaryErr = err
	}

	if p.cfg.Fallback == nil {
		if primaryErr != nil {
			return models.ProductInfo{}, fmt.Errorf("extraction: %w", primaryErr)
		}
		return models.ProductInfo{}, errors.New("extraction: aucun extracteur configuré")
	}

	info, err := p.cfg.Fallback.Extract(ctx, productURL)
	if err != nil {
		return models.ProductInfo{}, fmt.Errorf("extraction: %w", err)
	}
	return normalizeProduct(info, productURL), nil
}

func normalizeProduct(info models.ProductInfo, productURL string) models.ProductInfo {
	info.Title = strings.TrimSpace(info.Title)
	if info.Currency == "" {
		info.Currency = "INR"
	}
	if info.SourceURL == "" {
		info.SourceURL = productURL
	}
	if info.Images == nil {
		info.Images = []string{}
	}
	return info
}

// tracker garantit une progression strictement croissante pour un run
// et ignore tout ce qui vient d'un run remplacé.
type tracker struct {
	current func() bool
	report  ProgressFunc
	started bool
	last    int
}

func (t *tracker) emit(step models.GenerationStep, progress int, msg string) {
	if t.report == nil || !t.current() {
		return
	}
	if t.started && progress <= t.last {
		return
	}
	t.started = true
	t.last = progress
	t.report(models.GenerationProgress{
		Step:      step,
		Progress:  progress,
		Message:   msg,
		Completed: progress == 100,
	})
}

// fail émet l'événement terminal error(0), seule exception à la progression croissante.
func (t *tracker) fail(err error) {
	if t.report == nil || !t.current() {
		return
	}
	t.report(models.GenerationProgress{
		Step:     models.StepError,
		Progress: 0,
		Message:  "La génération a échoué : " + err.Error(),
		Error:    err.Error(),
	})
}
