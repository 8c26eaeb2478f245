package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"codpage_back_end/internal/apperrors"

	"github.com/sony/gobreaker/v2"
)

// maxResponseSize borne la lecture des réponses externes (images comprises).
const maxResponseSize = 20 << 20

// apiClient : client HTTP d'un service SaaS, protégé par un disjoncteur.
type apiClient struct {
	name    string
	baseURL string
	headers map[string]string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newAPIClient(name, baseURL string, timeout time.Duration, headers map[string]string) *apiClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &apiClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker(name),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("⚡ Disjoncteur %s: %s → %s", name, from, to)
		},
	})
}

// statusError : réponse HTTP non 2xx d'un service externe.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("statut HTTP %d: %s", e.Status, e.Body)
}

// postJSON envoie payload en JSON et renvoie le corps brut de la réponse.
func (c *apiClient) postJSON(ctx context.Context, path string, payload any, extra map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encodage requête: %w", c.name, err)
	}

	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range extra {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

func (c *apiClient) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
		if err != nil {
			return nil, err
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return nil, &statusError{Status: res.StatusCode, Body: truncate(string(raw), 200)}
		}
		return raw, nil
	})
	if err != nil {
		return nil, apperrors.Transient(c.name, err)
	}
	return data, nil
}

// truncate coupe s à n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
