// Package query filtre, trie et pagine une collection en mémoire.
package query

import (
	"slices"
	"strings"

	"codpage_back_end/internal/models"
)

// Filter est un filtre d'égalité stricte sur un champ (catégorie, statut, rôle).
type Filter[T any] struct {
	// Value extrait la valeur demandée depuis les paramètres ; vide = filtre inactif.
	Value func(p models.QueryParams) string
	Field func(item T) string
}

// Spec décrit une collection pour le moteur.
type Spec[T any] struct {
	Search   func(item T, term string) bool
	Filters  []Filter[T]
	SortKeys map[string]func(a, b T) int
}

type Result[T any] struct {
	Items      []T
	Pagination models.Pagination
}

// Run applique filtres, recherche, tri stable puis pagination.
// La slice d'entrée n'est jamais modifiée.
func Run[T any](items []T, params models.QueryParams, spec Spec[T]) Result[T] {
	p := params.Normalize()

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if matchesFilters(item, p, spec.Filters) {
			filtered = append(filtered, item)
		}
	}

	if term := strings.TrimSpace(p.Search); term != "" && spec.Search != nil {
		kept := filtered[:0]
		for _, item := range filtered {
			if spec.Search(item, term) {
				kept = append(kept, item)
			}
		}
		filtered = kept
	}

	if cmp, ok := spec.SortKeys[p.SortBy]; ok && p.SortBy != "" {
		if p.SortOrder == models.SortDesc {
			slices.SortStableFunc(filtered, func(a, b T) int { return cmp(b, a) })
		} else {
			slices.SortStableFunc(filtered, cmp)
		}
	}

	return Result[T]{
		Items:      paginate(filtered, p.Page, p.Limit),
		Pagination: Paginate(len(filtered), p.Page, p.Limit),
	}
}

// Paginate calcule les métadonnées de pagination.
func Paginate(total, page, limit int) models.Pagination {
	return models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}

func paginate[T any](items []T, page, limit int) []T {
	total := len(items)
	// Au-delà de la dernière page : vide, sans calculer (page-1)*limit qui peut déborder
	if limit <= 0 || page < 1 || page-1 > total/limit {
		return []T{}
	}
	start := (page - 1) * limit
	end := start + limit

	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func matchesFilters[T any](item T, p models.QueryParams, filters []Filter[T]) bool {
	for _, f := range filters {
		want := f.Value(p)
		if want == "" {
			continue
		}
		if f.Field(item) != want {
			return false
		}
	}
	return true
}

// ContainsFold : recherche insensible à la casse sur plusieurs champs.
func ContainsFold(term string, fields ...string) bool {
	needle := strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
