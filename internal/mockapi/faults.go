package mockapi

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"codpage_back_end/internal/apperrors"
)

// FaultInjector décide si un appel doit échouer artificiellement.
type FaultInjector interface {
	Inject(op string) error
}

// NoFaults : aucun échec injecté (défaut, et mode des tests).
type NoFaults struct{}

func (NoFaults) Inject(string) error { return nil }

// RandomFaults fait échouer une fraction Rate des appels avec une erreur transitoire.
type RandomFaults struct {
	Rate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomFaults(rate float64, seed uint64) *RandomFaults {
	return &RandomFaults{Rate: rate, rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (f *RandomFaults) Inject(op string) error {
	f.mu.Lock()
	roll := f.rnd.Float64()
	f.mu.Unlock()

	if roll < f.Rate {
		return apperrors.Transient("mock-api", fmt.Errorf("échec simulé (%s), veuillez réessayer", op))
	}
	return nil
}

// simulate applique la latence configurée puis l'injection de fautes.
func simulate(ctx context.Context, latency time.Duration, faults FaultInjector, op string) error {
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return faults.Inject(op)
}
