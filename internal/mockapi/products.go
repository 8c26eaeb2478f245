package mockapi

import (
	"cmp"
	"context"
	"log"
	"strings"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/database"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/query"
)

var productSpec = query.Spec[models.Product]{
	Search: func(p models.Product, term string) bool {
		return query.ContainsFold(term, p.Name, p.Description)
	},
	Filters: []query.Filter[models.Product]{{
		Value: func(p models.QueryParams) string { return p.Category },
		Field: func(p models.Product) string { return p.Category },
	}},
	SortKeys: map[string]func(a, b models.Product) int{
		"name":      func(a, b models.Product) int { return cmp.Compare(a.Name, b.Name) },
		"price":     func(a, b models.Product) int { return cmp.Compare(a.Price, b.Price) },
		"category":  func(a, b models.Product) int { return cmp.Compare(a.Category, b.Category) },
		"stock":     func(a, b models.Product) int { return cmp.Compare(a.Stock, b.Stock) },
		"createdAt": func(a, b models.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updatedAt": func(a, b models.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	},
}

// Indexer reçoit les changements du catalogue (Elasticsearch en production).
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	RemoveProduct(ctx context.Context, id string) error
	SearchProductIDs(ctx context.Context, term string) ([]string, error)
}

type ProductService struct {
	collection[models.Product]
	indexer Indexer
}

func NewProductService(repo database.Repository[models.Product], indexer Indexer, opts Options) *ProductService {
	return &ProductService{
		collection: collection[models.Product]{
			labels: labels{
				resource: "product",
				listed:   "Produits récupérés avec succès",
				fetched:  "Produit récupéré avec succès",
				created:  "Produit créé avec succès",
				updated:  "Produit mis à jour avec succès",
				deleted:  "Produit supprimé avec succès",
			},
			repo: repo,
			spec: productSpec,
			opts: opts.withDefaults(),
		},
		indexer: indexer,
	}
}

func (s *ProductService) List(ctx context.Context, params models.QueryParams) (models.ListResponse[models.Product], error) {
	return s.list(ctx, params)
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Response[models.Product], error) {
	return s.get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, in models.ProductInput) (models.Response[models.Product], error) {
	if err := simulate(ctx, s.opts.Latency, s.opts.Faults, "create product"); err != nil {
		return models.Response[models.Product]{}, err
	}

	now := s.opts.Now()
	p := models.Product{
		ID:          s.opts.NewID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateProduct(p); err != nil {
		return models.Response[models.Product]{}, err
	}

	res, err := s.save(ctx, p, s.labels.created)
	if err == nil {
		s.reindex(p)
	}
	return res, err
}

func (s *ProductService) Update(ctx context.Context, id string, patch models.ProductPatch) (models.Response[models.Product], error) {
	if err := simulate(ctx, s.opts.Latency, s.opts.Faults, "update product"); err != nil {
		return models.Response[models.Product]{}, err
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Response[models.Product]{}, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if err := validateProduct(p); err != nil {
		return models.Response[models.Product]{}, err
	}

	p.UpdatedAt = later(s.opts.Now(), p.UpdatedAt)
	res, err := s.save(ctx, p, s.labels.updated)
	if err == nil {
		s.reindex(p)
	}
	return res, err
}

func (s *ProductService) Delete(ctx context.Context, id string) (models.Response[*models.Product], error) {
	res, err := s.remove(ctx, id)
	if err == nil && s.indexer != nil {
		go func() {
			if err := s.indexer.RemoveProduct(context.Background(), id); err != nil {
				log.Printf("⚠️ Suppression index produit %s: %v", id, err)
			}
		}()
	}
	return res, err
}

// FullTextSearch interroge l'index en priorité, puis retombe sur le moteur en mémoire
// si l'index est absent, en erreur ou vide.
func (s *ProductService) FullTextSearch(ctx context.Context, params models.QueryParams) (models.ListResponse[models.Product], error) {
	term := strings.TrimSpace(params.Search)
	if s.indexer == nil || term == "" {
		return s.List(ctx, params)
	}

	ids, err := s.indexer.SearchProductIDs(ctx, term)
	if err != nil || len(ids) == 0 {
		if err != nil {
			log.Printf("⚠️ Recherche index indisponible, fallback moteur interne: %v", err)
		}
		return s.List(ctx, params)
	}

	// 1️⃣ Résultats de l'index, dans l'ordre de pertinence
	hits := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			continue
		}
		hits = append(hits, p)
	}

	// 2️⃣ Filtres / tri / pagination : la recherche texte est déjà faite par l'index
	params.Search = ""
	res := query.Run(hits, params, s.spec)
	return models.ListResponse[models.Product]{
		Data:       res.Items,
		Pagination: res.Pagination,
		Message:    s.labels.listed,
		Success:    true,
	}, nil
}

func (s *ProductService) reindex(p models.Product) {
	if s.indexer == nil {
		return
	}
	// 🔄 Indexation asynchrone, comme à la création côté catalogue
	go func() {
		if err := s.indexer.IndexProduct(context.Background(), p); err != nil {
			log.Printf("⚠️ Indexation produit %s: %v", p.ID, err)
		}
	}()
}

func validateProduct(p models.Product) error {
	v := apperrors.NewValidationError()
	if p.Name == "" {
		v.Add("name", "name: le nom est obligatoire")
	}
	if p.Price < 0 {
		v.Add("price", "price: le prix doit être positif ou nul")
	}
	if p.Stock < 0 {
		v.Add("stock", "stock: le stock doit être positif ou nul")
	}
	if p.Category == "" {
		v.Add("category", "category: la catégorie est obligatoire")
	}
	return v.OrNil()
}
