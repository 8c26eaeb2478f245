package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/utils"

	"github.com/redis/go-redis/v9"
)

// PageTTL : durée de conservation d'une page publiée.
const PageTTL = 30 * 24 * time.Hour

type pageBackend interface {
	save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	load(ctx context.Context, id string) ([]byte, error)
}

// PageStore publie les landing pages générées et les retrouve par identifiant.
type PageStore struct {
	backend pageBackend
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewRedisPageStore stocke les pages sous la clé "landing:<id>".
func NewRedisPageStore(client *redis.Client, baseURL string) *PageStore {
	return newPageStore(&redisPages{client: client}, baseURL)
}

// NewMemoryPageStore : pages gardées en mémoire, perdues au redémarrage.
func NewMemoryPageStore(baseURL string) *PageStore {
	return newPageStore(&memoryPages{pages: make(map[string][]byte)}, baseURL)
}

func newPageStore(b pageBackend, baseURL string) *PageStore {
	return &PageStore{backend: b, baseURL: baseURL, ttl: PageTTL, now: time.Now}
}

// Publish attribue un identifiant lp_<timestamp>_<aléatoire>, l'URL publique
// et un QR code, puis enregistre la page.
func (s *PageStore) Publish(ctx context.Context, data models.LandingPageData) (*models.PublishedPage, error) {
	now := s.now()
	id := fmt.Sprintf("lp_%d_%s", now.UnixMilli(), randomSuffix(9))
	page := &models.PublishedPage{
		ID:          id,
		URL:         s.baseURL + "/lp/" + id,
		Data:        data,
		PublishedAt: now,
	}

	qr, err := utils.PageQRCode(page.URL)
	if err != nil {
		log.Printf("⚠️ QR code non généré pour %s: %v", id, err)
	} else {
		page.QRCode = qr
	}

	raw, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("encodage page %s: %w", id, err)
	}
	if err := s.backend.save(ctx, id, raw, s.ttl); err != nil {
		return nil, apperrors.Transient("pages", err)
	}

	log.Printf("🚀 Landing page publiée: %s", page.URL)
	return page, nil
}

func (s *PageStore) Get(ctx context.Context, id string) (*models.PublishedPage, error) {
	raw, err := s.backend.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var page models.PublishedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("décodage page %s: %w", id, err)
	}
	return &page, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}

type redisPages struct {
	client *redis.Client
}

func (r *redisPages) save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, "landing:"+id, data, ttl).Err()
}

func (r *redisPages) load(ctx context.Context, id string) ([]byte, error) {
	raw, err := r.client.Get(ctx, "landing:"+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("page", id)
	}
	if err != nil {
		return nil, apperrors.Transient("pages", err)
	}
	return raw, nil
}

type memoryPages struct {
	mu    sync.RWMutex
	pages map[string][]byte
}

func (m *memoryPages) save(_ context.Context, id string, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[id] = data
	return nil
}

func (m *memoryPages) load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.pages[id]
	if !ok {
		return nil, apperrors.NotFound("page", id)
	}
	return raw, nil
}
