package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// QueryParams décrit une requête de liste (recherche, filtres, tri, pagination).
type QueryParams struct {
	Page      int       `json:"page" form:"page"`
	Limit     int       `json:"limit" form:"limit"`
	Search    string    `json:"search,omitempty" form:"search"`
	SortBy    string    `json:"sortBy,omitempty" form:"sortBy"`
	SortOrder SortOrder `json:"sortOrder,omitempty" form:"sortOrder"`
	Category  string    `json:"category,omitempty" form:"category"`
	Status    string    `json:"status,omitempty" form:"status"`
	Role      string    `json:"role,omitempty" form:"role"`
}

// Normalize applique les valeurs par défaut et borne la taille de page.
func (p QueryParams) Normalize() QueryParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortOrder != SortDesc {
		p.SortOrder = SortAsc
	}
	return p
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Response est l'enveloppe commune des opérations unitaires.
type Response[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
	Message    string     `json:"message"`
	Success    bool       `json:"success"`
}
