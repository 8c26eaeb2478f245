package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"codpage_back_end/internal/cache"

	"github.com/gin-gonic/gin"
)

const (
	// Fenêtre du rate limit de génération
	GenerateWindow = 1 * time.Minute
)

// GenerateLimiter compte les générations par IP, en HTTP comme en websocket.
// Sans Redis (counter nil) ou avec max <= 0 la limite est désactivée.
type GenerateLimiter struct {
	counter *cache.RateCounter
	max     int
}

func NewGenerateLimiter(counter *cache.RateCounter, maxPerWindow int) *GenerateLimiter {
	return &GenerateLimiter{counter: counter, max: maxPerWindow}
}

// Decision : résultat d'une tentative de génération.
type Decision struct {
	Allowed    bool
	Limited    bool // false si la limite est désactivée ou Redis indisponible
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

func (l *GenerateLimiter) enabled() bool {
	return l != nil && l.counter != nil && l.max > 0
}

func generateKey(ip string) string { return "generate_requests:" + ip }

// Take consomme une génération pour ip.
func (l *GenerateLimiter) Take(ctx context.Context, ip string) Decision {
	if !l.enabled() {
		return Decision{Allowed: true}
	}

	requests, ttl, err := l.counter.IncrementRateLimit(ctx, generateKey(ip), GenerateWindow)
	if err != nil {
		// Redis en panne : on laisse passer plutôt que de bloquer la génération
		log.Printf("⚠️ Rate limit indisponible: %v", err)
		return Decision{Allowed: true}
	}

	d := Decision{Limited: true, Limit: l.max, Remaining: max(int64(l.max)-requests, 0)}
	if requests > int64(l.max) {
		d.RetryAfter = ttl
		return d
	}
	d.Allowed = true
	return d
}

// Remaining lit le quota restant sans le consommer. ok est false si la limite est inactive.
func (l *GenerateLimiter) Remaining(ctx context.Context, ip string) (remaining int64, ok bool) {
	if !l.enabled() {
		return 0, false
	}
	used, err := l.counter.GetRateLimit(ctx, generateKey(ip))
	if err != nil {
		log.Printf("⚠️ Rate limit indisponible: %v", err)
		return 0, false
	}
	return max(int64(l.max)-used, 0), true
}

// LimitMessage : message renvoyé au client quand la limite est atteinte.
func LimitMessage(d Decision) string {
	return fmt.Sprintf("Trop de générations. Réessayez dans %d secondes", int(d.RetryAfter.Seconds()))
}

// GenerateRateLimit limite les générations de landing pages par IP.
func GenerateRateLimit(l *GenerateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := l.Take(c.Request.Context(), c.ClientIP())

		if !d.Allowed {
			retry := int(d.RetryAfter.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retry))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     LimitMessage(d),
				"retry_after": retry,
			})
			c.Abort()
			return
		}

		if d.Limited {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
		}
		c.Next()
	}
}
