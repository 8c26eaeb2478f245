package services

import (
	"context"
	"log"
	"strings"
	"time"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"

	"github.com/chromedp/chromedp"
)

// ChromeScraper extrait la fiche produit en rendant la page dans Chrome.
// Si wsURL est renseigné on se connecte à un Chrome distant (browserless, chrome headless
// en conteneur), sinon un Chrome local est lancé.
type ChromeScraper struct {
	wsURL    string
	attempts int
	interval time.Duration
	timeout  time.Duration
}

func NewChromeScraper(wsURL string, attempts int, interval, timeout time.Duration) *ChromeScraper {
	if attempts <= 0 {
		attempts = 10
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromeScraper{wsURL: wsURL, attempts: attempts, interval: interval, timeout: timeout}
}

// pageSnapshot : ce que snapshotJS remonte de la page.
type pageSnapshot struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice"`
	Currency      string   `json:"currency"`
	Brand         string   `json:"brand"`
	Rating        string   `json:"rating"`
	Images        []string `json:"images"`
	Features      []string `json:"features"`
}

// ready : la page est exploitable dès qu'on a un titre et un prix.
func (s pageSnapshot) ready() bool {
	return strings.TrimSpace(s.Title) != "" && parsePrice(s.Price) > 0
}

// snapshotJS lit les métadonnées OpenGraph, le JSON-LD Product puis les sélecteurs
// propres à Amazon et Flipkart.
const snapshotJS = `(() => {
  const q = (s) => { const el = document.querySelector(s); return el ? (el.content || el.textContent || '').trim() : ''; };
  const first = (...sels) => { for (const s of sels) { const v = q(s); if (v) return v; } return ''; };
  let ld = {};
  for (const s of document.querySelectorAll('script[type="application/ld+json"]')) {
    try {
      const data = JSON.parse(s.textContent);
      const items = Array.isArray(data) ? data : (data['@graph'] || [data]);
      const p = items.find((i) => i && i['@type'] === 'Product');
      if (p) { ld = p; break; }
    } catch (e) {}
  }
  const offer = Array.isArray(ld.offers) ? (ld.offers[0] || {}) : (ld.offers || {});
  const imgs = new Set();
  [].concat(ld.image || []).forEach((u) => typeof u === 'string' && imgs.add(u));
  const og = q('meta[property="og:image"]'); if (og) imgs.add(og);
  document.querySelectorAll('#altImages img, #landingImage, img._396cs4, img.DByuf4').forEach((i) => {
    const u = i.getAttribute('data-old-hires') || i.src; if (u && u.startsWith('http')) imgs.add(u);
  });
  const features = Array.from(document.querySelectorAll('#feature-bullets li span, ._1mXcCf li, ._21Ahn- li'))
    .map((e) => e.textContent.trim()).filter(Boolean).slice(0, 8);
  return {
    title: ld.name || first('#productTitle', 'span.B_NuCI', 'h1.yhB1nd', 'meta[property="og:title"]', 'h1'),
    description: ld.description || first('meta[property="og:description"]', 'meta[name="description"]', '#productDescription'),
    price: String(offer.price || first('.a-price .a-offscreen', '#priceblock_ourprice', 'div._30jeq3', 'div.Nx9bqj', 'meta[property="product:price:amount"]')),
    originalPrice: first('.a-text-price .a-offscreen', 'div._3I9_wc', 'div.yRaY8j'),
    currency: offer.priceCurrency || first('meta[property="product:price:currency"]'),
    brand: (ld.brand && (ld.brand.name || ld.brand)) || first('#bylineInfo', 'span.G6XhRU'),
    rating: String((ld.aggregateRating && ld.aggregateRating.ratingValue) || first('#acrPopover .a-icon-alt', 'div._3LWZlK', 'div.XQDdHH')),
    images: Array.from(imgs).slice(0, 8),
    features: features,
  };
})()`

func (s *ChromeScraper) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.wsURL != "" {
		return chromedp.NewRemoteAllocator(ctx, s.wsURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (s *ChromeScraper) Extract(ctx context.Context, productURL string) (models.ProductInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	allocCtx, cancelAlloc := s.allocator(ctx)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	log.Printf("🕷️ Scraping de %s", productURL)
	if err := chromedp.Run(tabCtx, chromedp.Navigate(productURL)); err != nil {
		return models.ProductInfo{}, apperrors.Transient("scraper", err)
	}

	var snap pageSnapshot
	err := poll(tabCtx, s.attempts, s.interval, "scraping", func(ctx context.Context) (bool, error) {
		if err := chromedp.Run(ctx, chromedp.Evaluate(snapshotJS, &snap)); err != nil {
			return false, apperrors.Transient("scraper", err)
		}
		return snap.ready(), nil
	})
	if err != nil {
		return models.ProductInfo{}, err
	}
	return toProductInfo(snap, productURL), nil
}

// poll appelle check jusqu'à ce qu'il réponde true, au plus attempts fois,
// en attendant interval entre deux essais.
func poll(ctx context.Context, attempts int, interval time.Duration, operation string, check func(context.Context) (bool, error)) error {
	for i := 0; i < attempts; i++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return &apperrors.TimeoutError{Operation: operation, Attempts: attempts}
}

func toProductInfo(s pageSnapshot, sourceURL string) models.ProductInfo {
	info := models.ProductInfo{
		Title:         cleanTitle(s.Title),
		Description:   strings.TrimSpace(s.Description),
		Price:         parsePrice(s.Price),
		OriginalPrice: parsePrice(s.OriginalPrice),
		Currency:      strings.ToUpper(strings.TrimSpace(s.Currency)),
		Brand:         strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s.Brand, "Visit the "), "Brand: ")),
		Rating:        parseNumber(s.Rating),
		Images:        dedupe(s.Images),
		Features:      s.Features,
		SourceURL:     sourceURL,
		Source:        "scraper",
	}
	info.Brand = strings.TrimSuffix(info.Brand, " Store")
	if info.Currency == "" {
		info.Currency = "INR"
	}
	if info.OriginalPrice <= info.Price {
		info.OriginalPrice = 0
	}
	if info.Rating > 5 {
		info.Rating = 0
	}
	return info
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
