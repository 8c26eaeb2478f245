// Package mockapi simule l'API e-commerce (utilisateurs, produits, commandes)
// au-dessus d'un Repository, avec latence et pannes injectables.
package mockapi

import (
	"context"
	"time"

	"codpage_back_end/internal/database"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/query"

	"github.com/google/uuid"
)

type Options struct {
	Faults  FaultInjector
	Latency time.Duration
	Now     func() time.Time
	NewID   func() string
}

func (o Options) withDefaults() Options {
	if o.Faults == nil {
		o.Faults = NoFaults{}
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	return o
}

// labels : noms et messages propres à une ressource.
type labels struct {
	resource string // utilisé pour l'injection de fautes et les logs
	listed   string
	fetched  string
	created  string
	updated  string
	deleted  string
}

// collection factorise lecture, liste et suppression pour chaque ressource.
type collection[T database.Record[T]] struct {
	labels labels
	repo   database.Repository[T]
	spec   query.Spec[T]
	opts   Options
}

func (c *collection[T]) list(ctx context.Context, params models.QueryParams) (models.ListResponse[T], error) {
	if err := simulate(ctx, c.opts.Latency, c.opts.Faults, "list "+c.labels.resource); err != nil {
		return models.ListResponse[T]{}, err
	}

	items, err := c.repo.List(ctx)
	if err != nil {
		return models.ListResponse[T]{}, err
	}

	res := query.Run(items, params, c.spec)
	return models.ListResponse[T]{
		Data:       res.Items,
		Pagination: res.Pagination,
		Message:    c.labels.listed,
		Success:    true,
	}, nil
}

func (c *collection[T]) get(ctx context.Context, id string) (models.Response[T], error) {
	if err := simulate(ctx, c.opts.Latency, c.opts.Faults, "get "+c.labels.resource); err != nil {
		return models.Response[T]{}, err
	}

	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		return models.Response[T]{}, err
	}
	return models.Response[T]{Data: rec, Message: c.labels.fetched, Success: true}, nil
}

// save persiste puis enveloppe l'enregistrement.
func (c *collection[T]) save(ctx context.Context, rec T, message string) (models.Response[T], error) {
	if err := c.repo.Put(ctx, rec); err != nil {
		return models.Response[T]{}, err
	}
	return models.Response[T]{Data: rec.Clone(), Message: message, Success: true}, nil
}

func (c *collection[T]) remove(ctx context.Context, id string) (models.Response[*T], error) {
	if err := simulate(ctx, c.opts.Latency, c.opts.Faults, "delete "+c.labels.resource); err != nil {
		return models.Response[*T]{}, err
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		return models.Response[*T]{}, err
	}
	return models.Response[*T]{Data: nil, Message: c.labels.deleted, Success: true}, nil
}
