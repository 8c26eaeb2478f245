package database

import (
	"context"
	"sync"

	"codpage_back_end/internal/apperrors"
)

// Record : entité identifiée, copiable sans aliasing.
type Record[T any] interface {
	GetID() string
	Clone() T
}

// Repository est la capacité de stockage d'une collection.
// Les implémentations renvoient toujours des copies.
type Repository[T Record[T]] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	// Put crée ou remplace l'enregistrement (dernier écrit gagne).
	Put(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepository garde les enregistrements en mémoire, dans l'ordre d'insertion.
type MemoryRepository[T Record[T]] struct {
	resource string

	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewMemoryRepository[T Record[T]](resource string) *MemoryRepository[T] {
	return &MemoryRepository[T]{
		resource: resource,
		items:    make(map[string]T),
	}
}

func (r *MemoryRepository[T]) List(ctx context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository[T]) Get(ctx context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[id]
	if !ok {
		var zero T
		return zero, apperrors.NotFound(r.resource, id)
	}
	return rec.Clone(), nil
}

func (r *MemoryRepository[T]) Put(ctx context.Context, rec T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := rec.GetID()
	if _, exists := r.items[id]; !exists {
		r.order = append(r.order, id)
	}
	r.items[id] = rec.Clone()
	return nil
}

func (r *MemoryRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return apperrors.NotFound(r.resource, id)
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
