package mockapi

import (
	"cmp"
	"context"
	"net/mail"
	"strings"
	"time"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/database"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/query"
)

var userSpec = query.Spec[models.User]{
	Search: func(u models.User, term string) bool {
		return query.ContainsFold(term, u.Name, u.Email)
	},
	Filters: []query.Filter[models.User]{{
		Value: func(p models.QueryParams) string { return p.Role },
		Field: func(u models.User) string { return string(u.Role) },
	}},
	SortKeys: map[string]func(a, b models.User) int{
		"name":      func(a, b models.User) int { return cmp.Compare(a.Name, b.Name) },
		"email":     func(a, b models.User) int { return cmp.Compare(a.Email, b.Email) },
		"role":      func(a, b models.User) int { return cmp.Compare(a.Role, b.Role) },
		"createdAt": func(a, b models.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updatedAt": func(a, b models.User) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	},
}

type UserService struct {
	collection[models.User]
}

func NewUserService(repo database.Repository[models.User], opts Options) *UserService {
	return &UserService{collection[models.User]{
		labels: labels{
			resource: "user",
			listed:   "Utilisateurs récupérés avec succès",
			fetched:  "Utilisateur récupéré avec succès",
			created:  "Utilisateur créé avec succès",
			updated:  "Utilisateur mis à jour avec succès",
			deleted:  "Utilisateur supprimé avec succès",
		},
		repo: repo,
		spec: userSpec,
		opts: opts.withDefaults(),
	}}
}

func (s *UserService) List(ctx context.Context, params models.QueryParams) (models.ListResponse[models.User], error) {
	return s.list(ctx, params)
}

func (s *UserService) Get(ctx context.Context, id string) (models.Response[models.User], error) {
	return s.get(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in models.UserInput) (models.Response[models.User], error) {
	if err := simulate(ctx, s.opts.Latency, s.opts.Faults, "create user"); err != nil {
		return models.Response[models.User]{}, err
	}

	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if err := validateUser(in.Name, in.Email, in.Role); err != nil {
		return models.Response[models.User]{}, err
	}

	now := s.opts.Now()
	u := models.User{
		ID:        s.opts.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Role:      in.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.save(ctx, u, s.labels.created)
}

func (s *UserService) Update(ctx context.Context, id string, patch models.UserPatch) (models.Response[models.User], error) {
	if err := simulate(ctx, s.opts.Latency, s.opts.Faults, "update user"); err != nil {
		return models.Response[models.User]{}, err
	}

	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Response[models.User]{}, err
	}

	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if err := validateUser(u.Name, u.Email, u.Role); err != nil {
		return models.Response[models.User]{}, err
	}

	u.UpdatedAt = later(s.opts.Now(), u.UpdatedAt)
	return s.save(ctx, u, s.labels.updated)
}

func (s *UserService) Delete(ctx context.Context, id string) (models.Response[*models.User], error) {
	return s.remove(ctx, id)
}

func validateUser(name, email string, role models.Role) error {
	v := apperrors.NewValidationError()
	if strings.TrimSpace(name) == "" {
		v.Add("name", "name: le nom est obligatoire")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		v.Add("email", "email: adresse e-mail invalide")
	}
	if !role.Valid() {
		v.Add("role", "role: doit être admin, user ou moderator")
	}
	return v.OrNil()
}

// later garantit qu'UpdatedAt ne recule jamais, même avec une horloge figée en test.
func later(now, previous time.Time) time.Time {
	if now.Before(previous) {
		return previous
	}
	return now
}
