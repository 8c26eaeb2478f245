package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"category\":\"beauty\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewLLMClient(srv.URL+"/", "sk-test", "gpt-test", time.Second)
	out, err := c.Complete(context.Background(), "system", "prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"category":"beauty"}`, out)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "prompt", got.Messages[1].Content)
}

func TestLLMClient_ErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewLLMClient(srv.URL, "k", "m", time.Second).Complete(context.Background(), "s", "p")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
}

func TestLLMClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewLLMClient(srv.URL, "k", "m", time.Second).Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, apperrors.ErrTransient)
}

func TestAPIClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newAPIClient("test", srv.URL, time.Second, nil)
	for i := 0; i < 7; i++ {
		_, err := c.postJSON(context.Background(), "/x", map[string]string{}, nil)
		assert.ErrorIs(t, err, apperrors.ErrTransient)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls)
}

func TestAPIClient_CancelledContext(t *testing.T) {
	c := newAPIClient("test", "http://127.0.0.1:1", time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.postJSON(ctx, "/x", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchExtractor_Extract(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		queries = append(queries, req.Q)

		switch r.URL.Path {
		case "/search":
			w.Write([]byte(`{"organic":[
				{"title":"Boat Airdopes 141 Wireless Earbuds : Amazon.in: Electronics","snippet":"Deal price ₹1,299.00 with 42H playtime","rating":4.1},
				{"title":"Boat Airdopes 141","snippet":"Best earbuds under 1500"},
				{"title":"Other","snippet":"third snippet"}
			]}`))
		case "/images":
			w.Write([]byte(`{"images":[{"imageUrl":"https://img/1.jpg"},{"imageUrl":""},{"imageUrl":"https://img/2.jpg"}]}`))
		default:
			t.Errorf("chemin inattendu %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := NewSearchExtractor(srv.URL, "key", time.Second)
	info, err := s.Extract(context.Background(), "https://www.amazon.in/Boat-Airdopes-141-Wireless/dp/B09N3ZNHTY")

	require.NoError(t, err)
	assert.Equal(t, "Boat Airdopes 141 Wireless Earbuds", info.Title)
	assert.Equal(t, 1299.0, info.Price)
	assert.Equal(t, 4.1, info.Rating)
	assert.Equal(t, "search", info.Source)
	assert.Equal(t, "INR", info.Currency)
	assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, info.Images)
	assert.Equal(t, "Deal price ₹1,299.00 with 42H playtime Best earbuds under 1500", info.Description)
	require.Len(t, queries, 2)
	assert.Equal(t, "Boat Airdopes 141 Wireless amazon.in", queries[0])
}

func TestSearchExtractor_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic":[]}`))
	}))
	defer srv.Close()

	_, err := NewSearchExtractor(srv.URL, "key", time.Second).Extract(context.Background(), "https://www.flipkart.com/x-y/p/itm1")
	assert.ErrorIs(t, err, apperrors.ErrTransient)
}

func TestSearchExtractor_ImagesFailureIsIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/images" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"organic":[{"title":"Kurta","price":799}]}`))
	}))
	defer srv.Close()

	info, err := NewSearchExtractor(srv.URL, "key", time.Second).Extract(context.Background(), "https://www.myntra.com/kurtas/cotton-kurta/123")
	require.NoError(t, err)
	assert.Equal(t, 799.0, info.Price)
	assert.Empty(t, info.Images)
	assert.NotNil(t, info.Images)
}

func TestSearchQueryFromURL(t *testing.T) {
	cases := map[string]string{
		"https://www.flipkart.com/apple-iphone-15-black-128-gb/p/itm6ac6485515ae4": "apple iphone 15 black 128 gb flipkart.com",
		"https://www.nykaa.com/lakme-9-to-5-primer/p/123":                          "lakme 9 to 5 primer nykaa.com",
		"https://shop.example.com/item/42":                                         "https://shop.example.com/item/42",
	}
	for in, want := range cases {
		assert.Equal(t, want, searchQueryFromURL(in), in)
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"₹1,299.00":     1299,
		"Rs. 499":       499,
		"INR 2,150":     2150,
		"$19.99":        19.99,
		"1299":          1299,
		"Price: ₹ 899":  899,
		"no price here": 0,
		"":              0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parsePrice(in), in)
	}
}

func TestPoll(t *testing.T) {
	t.Run("réussit à la troisième tentative", func(t *testing.T) {
		n := 0
		err := poll(context.Background(), 5, time.Millisecond, "op", func(context.Context) (bool, error) {
			n++
			return n == 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("épuise les tentatives", func(t *testing.T) {
		n := 0
		err := poll(context.Background(), 4, time.Millisecond, "scraping", func(context.Context) (bool, error) {
			n++
			return false, nil
		})
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
		var te *apperrors.TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "scraping", te.Operation)
		assert.Equal(t, 4, n)
	})

	t.Run("remonte l'erreur de la vérification", func(t *testing.T) {
		boom := errors.New("boom")
		err := poll(context.Background(), 4, time.Millisecond, "op", func(context.Context) (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("s'arrête sur annulation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := poll(ctx, 10, time.Hour, "op", func(context.Context) (bool, error) {
			cancel()
			return false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestToProductInfo(t *testing.T) {
	info := toProductInfo(pageSnapshot{
		Title:         "  Cotton Kurta | Myntra ",
		Description:   " Soft kurta ",
		Price:         "₹899",
		OriginalPrice: "₹1,499",
		Brand:         "Visit the Libas Store",
		Rating:        "4.3 out of 5 stars",
		Images:        []string{"https://a.jpg", " https://a.jpg", "", "https://b.jpg"},
	}, "https://www.myntra.com/kurta")

	assert.Equal(t, "Cotton Kurta", info.Title)
	assert.Equal(t, "Soft kurta", info.Description)
	assert.Equal(t, 899.0, info.Price)
	assert.Equal(t, 1499.0, info.OriginalPrice)
	assert.Equal(t, "Libas", info.Brand)
	assert.Equal(t, 4.3, info.Rating)
	assert.Equal(t, "INR", info.Currency)
	assert.Equal(t, "scraper", info.Source)
	assert.Equal(t, []string{"https://a.jpg", "https://b.jpg"}, info.Images)
}

func TestToProductInfo_DropsInconsistentValues(t *testing.T) {
	info := toProductInfo(pageSnapshot{Title: "X", Price: "500", OriginalPrice: "400", Rating: "87 ratings", Currency: "usd"}, "u")
	assert.Zero(t, info.OriginalPrice)
	assert.Zero(t, info.Rating)
	assert.Equal(t, "USD", info.Currency)
}

func TestBackgroundRemover_Remove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/removebg", r.URL.Path)
		assert.Equal(t, "rb-key", r.Header.Get("X-Api-Key"))
		var req removeBgRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://img/1.jpg", req.ImageURL)
		assert.Equal(t, "auto", req.Size)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	out, err := NewBackgroundRemover(srv.URL, "rb-key", time.Second).Remove(context.Background(), "https://img/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("PNGDATA"), out)
}

type fakeRemover struct {
	data []byte
	err  error
}

func (f fakeRemover) Remove(context.Context, string) ([]byte, error) { return f.data, f.err }

type fakeUploader struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[name] = data
	return "https://cdn/" + name, nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedWidth(t *testing.T, data []byte) int {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width
}

func TestImagePipeline_Process(t *testing.T) {
	up := &fakeUploader{}
	p := NewImagePipeline(fakeRemover{data: testPNG(t, 1600, 800)}, up)
	p.newID = func() string { return "abc" }

	out, err := p.Process(context.Background(), "https://img/1.jpg", "Earbuds")

	require.NoError(t, err)
	assert.Equal(t, models.ProcessedImage{
		Original:          "https://img/1.jpg",
		BackgroundRemoved: "https://cdn/landing/abc/cutout.png",
		Optimized:         "https://cdn/landing/abc/optimized.png",
		Thumbnail:         "https://cdn/landing/abc/thumb.png",
		Alt:               "Earbuds",
	}, out)
	assert.Equal(t, 1200, decodedWidth(t, up.uploads["landing/abc/optimized.png"]))
	assert.Equal(t, 300, decodedWidth(t, up.uploads["landing/abc/thumb.png"]))
}

func TestImagePipeline_SmallImageIsNotUpscaled(t *testing.T) {
	up := &fakeUploader{}
	p := NewImagePipeline(fakeRemover{data: testPNG(t, 200, 100)}, up)
	p.newID = func() string { return "s" }

	_, err := p.Process(context.Background(), "u", "")
	require.NoError(t, err)
	assert.Equal(t, 200, decodedWidth(t, up.uploads["landing/s/optimized.png"]))
	assert.Equal(t, 200, decodedWidth(t, up.uploads["landing/s/thumb.png"]))
}

func TestImagePipeline_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewImagePipeline(fakeRemover{err: boom}, &fakeUploader{}).Process(context.Background(), "u", "")
	assert.ErrorIs(t, err, boom)

	_, err = NewImagePipeline(fakeRemover{data: []byte("pas une image")}, &fakeUploader{}).Process(context.Background(), "u", "")
	assert.Error(t, err)

	_, err = NewImagePipeline(fakeRemover{data: testPNG(t, 10, 10)}, &fakeUploader{err: boom}).Process(context.Background(), "u", "")
	assert.ErrorIs(t, err, boom)
}

func TestMinioCDN_NotConfigured(t *testing.T) {
	var cdn *MinioCDN
	_, err := cdn.Upload(context.Background(), "x.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, apperrors.ErrTransient)
}

// fakeElastic simule les quelques routes Elasticsearch utilisées.
func fakeElastic(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			w.Write([]byte(`{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		handler(w, r, body)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticIndex_IndexAndRemove(t *testing.T) {
	var paths []string
	client := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		assert.Contains(t, string(body), `"name":"Yoga Mat"`)
		w.Write([]byte(`{"result":"created"}`))
	})
	idx := NewElasticIndex(client, "")

	require.NoError(t, idx.IndexProduct(context.Background(), models.Product{ID: "p1", Name: "Yoga Mat"}))
	require.NoError(t, idx.RemoveProduct(context.Background(), "p1"))
	assert.Equal(t, []string{"PUT /products/_doc/p1", "DELETE /products/_doc/p1"}, paths)
}

func TestElasticIndex_SearchProductIDs(t *testing.T) {
	client := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/products/_search"))
		assert.Contains(t, string(body), `"multi_match"`)
		assert.Contains(t, string(body), `"query":"serum"`)
		w.Write([]byte(`{"hits":{"hits":[{"_id":"p3"},{"_id":"p1"}]}}`))
	})

	ids, err := NewElasticIndex(client, "products").SearchProductIDs(context.Background(), "serum")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, ids)
}

func TestElasticIndex_SearchError(t *testing.T) {
	client := fakeElastic(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"index_not_found_exception"}`))
	})

	_, err := NewElasticIndex(client, "products").SearchProductIDs(context.Background(), "x")
	assert.ErrorIs(t, err, apperrors.ErrTransient)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "court", truncate("court", 10))
	assert.Equal(t, "₹₹₹…", truncate("₹₹₹₹₹", 3))
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("é", 300), 200)))
}
