package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amazonURL = "https://www.amazon.in/Boat-Airdopes-141/dp/B09N3ZNHTY"

type fakeExtractor struct {
	info  models.ProductInfo
	err   error
	calls atomic.Int32
	// block, si non nil, retient le premier appel jusqu'à sa fermeture
	block chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, _ string) (models.ProductInfo, error) {
	if n := f.calls.Add(1); n == 1 && f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return models.ProductInfo{}, ctx.Err()
		}
	}
	return f.info, f.err
}

// scriptedLLM répond selon un mot-clé présent dans le prompt.
type scriptedLLM struct {
	replies map[string]string
	err     error
}

func (s *scriptedLLM) Complete(_ context.Context, _, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for key, reply := range s.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "not json", nil
}

type fakeImages struct {
	mu     sync.Mutex
	failOn map[string]bool
	delay  map[string]time.Duration
}

func (f *fakeImages) Process(_ context.Context, src, alt string) (models.ProcessedImage, error) {
	f.mu.Lock()
	d := f.delay[src]
	fail := f.failOn[src]
	f.mu.Unlock()
	time.Sleep(d)
	if fail {
		return models.ProcessedImage{}, errors.New("removebg: quota")
	}
	return models.ProcessedImage{
		Original:          src,
		BackgroundRemoved: "cdn:" + src + ":cut",
		Optimized:         "cdn:" + src + ":opt",
		Thumbnail:         "cdn:" + src + ":thumb",
		Alt:               alt,
	}, nil
}

func earbuds() models.ProductInfo {
	return models.ProductInfo{
		Title:       "Boat Airdopes 141 Bluetooth Earbuds",
		Description: "42H playtime",
		Price:       1299,
		Currency:    "INR",
		Images:      []string{"a.jpg", "b.jpg"},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []models.GenerationProgress
}

func (r *recorder) report(p models.GenerationProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func (r *recorder) progress() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Progress
	}
	return out
}

func fixedNow() time.Time { return time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC) }

func TestGenerate_FullRunReportsEveryStage(t *testing.T) {
	p := New(Config{Primary: &fakeExtractor{info: earbuds()}, Now: fixedNow})
	rec := &recorder{}

	data, err := p.NewGenerator().Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, rec.report)

	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, []int{0, 10, 25, 40, 55, 70, 85, 95, 100}, rec.progress())

	steps := make([]models.GenerationStep, len(rec.events))
	for i, e := range rec.events {
		steps[i] = e.Step
		assert.Equal(t, e.Progress == 100, e.Completed)
		assert.Empty(t, e.Error)
	}
	assert.Equal(t, []models.GenerationStep{
		models.StepStarting, models.StepExtracting, models.StepClassifying, models.StepDesigning,
		models.StepContent, models.StepImages, models.StepCountdown, models.StepForm, models.StepCompleted,
	}, steps)

	assert.Equal(t, "electronics", data.Classification.Category)
	assert.Equal(t, PriceMidRange, data.Classification.PriceRange)
	assert.Equal(t, DefaultTheme("electronics"), data.Theme)
	assert.Equal(t, 1299.0, data.Form.Price)
	assert.Len(t, data.Form.Fields, 8)
	assert.Equal(t, fixedNow().Add(24*time.Hour), data.Countdown.EndTime)
	assert.Equal(t, fixedNow(), data.GeneratedAt)
	assert.Equal(t, amazonURL, data.SourceURL)
}

func TestGenerate_UnsupportedURLEmitsNothing(t *testing.T) {
	primary := &fakeExtractor{info: earbuds()}
	rec := &recorder{}

	data, err := New(Config{Primary: primary}).NewGenerator().Generate(context.Background(),
		models.GenerationRequest{ProductURL: "https://randomshop.example/p/1"}, rec.report)

	assert.Nil(t, data)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedInput)
	assert.Empty(t, rec.events)
	assert.Zero(t, primary.calls.Load())
}

func TestGenerate_FallbackExtractorReachesCompletion(t *testing.T) {
	primary := &fakeExtractor{err: &apperrors.TimeoutError{Operation: "scraping", Attempts: 10}}
	fallback := &fakeExtractor{info: models.ProductInfo{Title: "Airdopes", Price: 999, Source: "search"}}
	rec := &recorder{}

	data, err := New(Config{Primary: primary, Fallback: fallback}).NewGenerator().Generate(context.Background(),
		models.GenerationRequest{ProductURL: amazonURL}, rec.report)

	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "search", data.Product.Source)
	assert.Equal(t, "INR", data.Product.Currency)
	assert.Equal(t, amazonURL, data.Product.SourceURL)
	assert.NotNil(t, data.Images)
	assert.Equal(t, 100, rec.progress()[len(rec.events)-1])
	assert.EqualValues(t, 1, fallback.calls.Load())
}

func TestGenerate_PrimaryWithoutTitleUsesFallback(t *testing.T) {
	fallback := &fakeExtractor{info: earbuds()}
	data, err := New(Config{Primary: &fakeExtractor{info: models.ProductInfo{Price: 10}}, Fallback: fallback}).
		NewGenerator().Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, nil)

	require.NoError(t, err)
	assert.Equal(t, earbuds().Title, data.Product.Title)
}

func TestGenerate_BothExtractorsFailWithFallbackError(t *testing.T) {
	searchErr := apperrors.Transient("search", errors.New("quota dépassé"))
	rec := &recorder{}

	data, err := New(Config{
		Primary:  &fakeExtractor{err: errors.New("chrome crashed")},
		Fallback: &fakeExtractor{err: searchErr},
	}).NewGenerator().Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, rec.report)

	assert.Nil(t, data)
	assert.ErrorIs(t, err, searchErr)
	assert.NotContains(t, err.Error(), "chrome")

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, models.StepError, last.Step)
	assert.Equal(t, 0, last.Progress)
	assert.False(t, last.Completed)
	assert.Contains(t, last.Error, "quota dépassé")
	assert.Equal(t, []int{0, 10, 0}, rec.progress())
}

func TestGenerate_ClassificationParseFailureUsesDefaults(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{
		"Classify": `{"category": 42}`,
	}}
	data, err := New(Config{Primary: &fakeExtractor{info: earbuds()}, LLM: llm}).NewGenerator().
		Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultClassification(earbuds()), data.Classification)
	assert.Equal(t, DefaultContent(earbuds(), data.Classification), data.Content)
}

func TestGenerate_UsesLLMReplies(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{
		"Classify":   "```json\n{\"category\":\"Audio\",\"subcategory\":\"earbuds\",\"targetAudience\":\"students\",\"priceRange\":\"Budget\",\"keywords\":[\"tws\"],\"tone\":\"playful\"}\n```",
		"Design":     `{"primaryColor":"#111111","secondaryColor":"#222222","accentColor":"#333333","backgroundColor":"#FFFFFF","textColor":"#000000","fontHeading":"Poppins","fontBody":"Inter","style":"neon"}`,
		"persuasive": `{"headline":"Sound that moves","description":"d","benefits":["42H"],"callToAction":"Buy","guarantee":"g"}`,
	}}
	req := models.GenerationRequest{ProductURL: amazonURL, Customizations: models.Customizations{PrimaryColor: "#ABCDEF"}}

	data, err := New(Config{Primary: &fakeExtractor{info: earbuds()}, LLM: llm}).NewGenerator().Generate(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Equal(t, "audio", data.Classification.Category)
	assert.Equal(t, PriceBudget, data.Classification.PriceRange)
	assert.Equal(t, "#ABCDEF", data.Theme.PrimaryColor)
	assert.Equal(t, "neon", data.Theme.Style)
	assert.Equal(t, "Sound that moves", data.Content.Headline)
	assert.NotNil(t, data.Content.Testimonials)
	assert.NotNil(t, data.Content.FAQs)
}

func TestGenerate_InvalidThemeColorsUseDefaults(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{
		"Design": `{"primaryColor":"blue","secondaryColor":"#222222","accentColor":"#333333","backgroundColor":"#FFFFFF","textColor":"#000000","fontHeading":"A","fontBody":"B"}`,
	}}
	data, err := New(Config{Primary: &fakeExtractor{info: earbuds()}, LLM: llm}).NewGenerator().
		Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultTheme(data.Classification.Category), data.Theme)
}

func TestGenerate_LLMTransportErrorAborts(t *testing.T) {
	rec := &recorder{}
	llm := &scriptedLLM{err: apperrors.Transient("llm", errors.New("503"))}

	data, err := New(Config{Primary: &fakeExtractor{info: earbuds()}, LLM: llm}).NewGenerator().
		Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, rec.report)

	assert.Nil(t, data)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Equal(t, []int{0, 10, 25, 0}, rec.progress())
	assert.Equal(t, models.StepError, rec.events[3].Step)
}

func TestGenerate_ImageFailuresKeepOriginalsInOrder(t *testing.T) {
	info := earbuds()
	info.Images = []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg", "7.jpg", "8.jpg"}
	images := &fakeImages{
		failOn: map[string]bool{"2.jpg": true, "5.jpg": true},
		delay:  map[string]time.Duration{"1.jpg": 30 * time.Millisecond, "3.jpg": 10 * time.Millisecond},
	}

	data, err := New(Config{Primary: &fakeExtractor{info: info}, Images: images}).NewGenerator().
		Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, nil)

	require.NoError(t, err)
	require.Len(t, data.Images, 6)
	for i, img := range data.Images {
		src := info.Images[i]
		assert.Equal(t, src, img.Original)
		if src == "2.jpg" || src == "5.jpg" {
			assert.Equal(t, originalImage(src, img.Alt), img)
			continue
		}
		assert.Equal(t, "cdn:"+src+":thumb", img.Thumbnail)
	}
	assert.Equal(t, info.Title+" - image 1", data.Images[0].Alt)
}

func TestGenerate_NoImageProcessorKeepsOriginals(t *testing.T) {
	data, err := New(Config{Primary: &fakeExtractor{info: earbuds()}}).NewGenerator().
		Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, nil)

	require.NoError(t, err)
	require.Len(t, data.Images, 2)
	assert.Equal(t, "a.jpg", data.Images[0].Optimized)
}

func TestGenerate_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}

	_, err := New(Config{Primary: &fakeExtractor{info: earbuds()}}).NewGenerator().
		Generate(ctx, models.GenerationRequest{ProductURL: amazonURL}, rec.report)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, rec.events, 1)
	assert.Equal(t, models.StepError, rec.events[0].Step)
}

func TestGenerate_NewRunSupersedesOldOne(t *testing.T) {
	slow := &fakeExtractor{info: earbuds(), block: make(chan struct{})}
	gen := New(Config{Primary: slow}).NewGenerator()

	firstRec := &recorder{}
	done := make(chan error, 1)
	go func() {
		_, err := gen.Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, firstRec.report)
		done <- err
	}()
	require.Eventually(t, func() bool { return slow.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondRec := &recorder{}
	_, err := gen.Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, secondRec.report)
	require.NoError(t, err)

	close(slow.block)
	require.NoError(t, <-done)

	assert.Equal(t, []int{0, 10, 25, 40, 55, 70, 85, 95, 100}, secondRec.progress())
	assert.Equal(t, []int{0, 10}, firstRec.progress())
}

func TestGenerate_SeparateGeneratorsDoNotInterfere(t *testing.T) {
	p := New(Config{Primary: &fakeExtractor{info: earbuds()}})
	a, b := &recorder{}, &recorder{}

	_, errA := p.NewGenerator().Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, a.report)
	_, errB := p.NewGenerator().Generate(context.Background(), models.GenerationRequest{ProductURL: amazonURL}, b.report)

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a.progress(), b.progress())
}

func TestTracker_MonotonicAndStale(t *testing.T) {
	current := true
	rec := &recorder{}
	tr := &tracker{current: func() bool { return current }, report: rec.report}

	tr.emit(models.StepStarting, 0, "")
	tr.emit(models.StepExtracting, 10, "")
	tr.emit(models.StepStarting, 0, "")
	tr.emit(models.StepExtracting, 10, "")
	tr.emit(models.StepClassifying, 25, "")
	current = false
	tr.emit(models.StepDesigning, 40, "")
	tr.fail(errors.New("x"))

	assert.Equal(t, []int{0, 10, 25}, rec.progress())
}

func TestValidateProductURL(t *testing.T) {
	valid := []string{
		"https://www.amazon.in/dp/XYZ",
		"https://amazon.com/gp/product/B0",
		"http://www.flipkart.com/item/p/itm1",
		"https://www.myntra.com/kurtas/1",
		"https://www.ajio.com/p/1",
		"https://www.nykaa.com/p/1",
		"https://store.shopify.com/products/x",
		"https://woocommerce.com/products/x",
		"  https://WWW.AMAZON.IN/dp/1  ",
	}
	for _, u := range valid {
		assert.True(t, ValidateProductURL(u), u)
	}

	invalid := []string{
		"https://randomshop.example/p/1",
		"https://notamazon.in/dp/1",
		"https://amazon.in.evil.com/dp/1",
		"ftp://amazon.in/dp/1",
		"amazon.in/dp/1",
		"",
		"://bad",
	}
	for _, u := range invalid {
		assert.False(t, ValidateProductURL(u), u)
	}

	err := CheckProductURL("https://randomshop.example/p/1")
	var ue *apperrors.UnsupportedInputError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "domaine non pris en charge", ue.Reason)
}

func TestPriceRange(t *testing.T) {
	cases := map[float64]string{
		0:     PriceMidRange,
		-5:    PriceMidRange,
		1:     PriceBudget,
		499:   PriceBudget,
		500:   PriceMidRange,
		1999:  PriceMidRange,
		2000:  PricePremium,
		9999:  PricePremium,
		10000: PriceLuxury,
	}
	for price, want := range cases {
		assert.Equal(t, want, PriceRange(price), price)
	}
}

func TestDefaultClassification(t *testing.T) {
	c := DefaultClassification(models.ProductInfo{Title: "Vitamin C Face Serum 30ml", Price: 549})
	assert.Equal(t, "beauty", c.Category)
	assert.Equal(t, PriceMidRange, c.PriceRange)
	assert.Equal(t, []string{"vitamin", "face", "serum", "30ml"}, c.Keywords)

	g := DefaultClassification(models.ProductInfo{Title: "Mystery box"})
	assert.Equal(t, "general", g.Category)
	assert.Equal(t, DefaultTheme("unknown"), DefaultTheme(g.Category))
}

func TestDefaultContent(t *testing.T) {
	c := DefaultContent(models.ProductInfo{Title: "Yoga Mat", Features: []string{"6mm", " ", "anti-slip"}}, models.ProductClassification{PriceRange: PriceLuxury})
	assert.Equal(t, "Yoga Mat", c.Headline)
	assert.Equal(t, []string{"6mm", "anti-slip"}, c.Benefits)
	assert.Contains(t, c.Description, "Yoga Mat")
	assert.Contains(t, c.Subheadline, "Premium")
	assert.NoError(t, checkContent(&c))
}

func TestCountdown(t *testing.T) {
	now := fixedNow()

	c := Countdown(now, models.Customizations{})
	assert.Equal(t, now.Add(24*time.Hour), c.EndTime)
	assert.Equal(t, "Hurry! Offer Ends Soon", c.Title)
	assert.Equal(t, models.UrgencyMedium, c.UrgencyLevel)
	assert.True(t, c.Enabled)

	assert.Equal(t, "Limited Time Offer", Countdown(now, models.Customizations{UrgencyLevel: models.UrgencyLow}).Title)
	assert.Equal(t, "Last Chance! Almost Sold Out", Countdown(now, models.Customizations{UrgencyLevel: models.UrgencyHigh}).Title)
	assert.Equal(t, "Hurry! Offer Ends Soon", Countdown(now, models.Customizations{UrgencyLevel: "extreme"}).Title)
	assert.Equal(t, now.Add(72*time.Hour), Countdown(now, models.Customizations{CountdownHours: 72}).EndTime)
}

func TestDecodeStrict(t *testing.T) {
	_, err := decodeStrict[models.ProductClassification]("pas de json", checkClassification)
	assert.Error(t, err)

	_, err = decodeStrict[models.ProductClassification](`{"category":"x","priceRange":"cheap"}`, checkClassification)
	assert.Error(t, err)

	c, err := decodeStrict[models.ProductClassification](`Voici: {"category":" Home ","priceRange":"premium"} merci`, checkClassification)
	require.NoError(t, err)
	assert.Equal(t, "home", c.Category)
	assert.Equal(t, []string{}, c.Keywords)
}
