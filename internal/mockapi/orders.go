package mockapi

import (
	"cmp"
	"context"
	"fmt"

	"codpage_back_end/internal/apperrors"
	"codpage_back_end/internal/database"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/query"

	"github.com/shopspring/decimal"
)

var orderSpec = query.Spec[models.Order]{
	Search: func(o models.Order, term string) bool {
		return query.ContainsFold(term, o.ID, o.UserID, o.ShippingAddress.City)
	},
	Filters: []query.Filter[models.Order]{{
		Value: func(p models.QueryParams) string { return p.Status },
		Field: func(o models.Order) string { return string(o.Status) },
	}},
	SortKeys: map[string]func(a, b models.Order) int{
		"total":     func(a, b models.Order) int { return cmp.Compare(a.Total, b.Total) },
		"status":    func(a, b models.Order) int { return cmp.Compare(a.Status, b.Status) },
		"userId":    func(a, b models.Order) int { return cmp.Compare(a.UserID, b.UserID) },
		"createdAt": func(a, b models.Order) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updatedAt": func(a, b models.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	},
}

type OrderService struct {
	collection[models.Order]
	users    database.Repository[models.User]
	products database.Repository[models.Product]
}

func NewOrderService(
	repo database.Repository[models.Order],
	users database.Repository[models.User],
	products database.Repository[models.Product],
	opts Options,
) *OrderService {
	return &OrderService{
		collection: collection[models.Order]{
			labels: labels{
				resource: "order",
				listed:   "Commandes récupérées avec succès",
				fetched:  "Commande récupérée avec succès",
				created:  "Commande créée avec succès",
				updated:  "Commande mise à jour avec succès",
				deleted:  "Commande supprimée avec succès",
			},
			repo: repo,
			spec: orderSpec,
			opts: opts.withDefaults(),
		},
		users:    users,
		products: products,
	}
}

func (s *OrderService) List(ctx context.Context, params models.QueryParams) (models.ListResponse[models.Order], error) {
	return s.list(ctx, params)
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Response[models.Order], error) {
	return s.get(ctx, id)
}

// Create vérifie l'utilisateur et chaque produit, fige les prix et calcule le total.
func (s *OrderService) Create(ctx context.Context, in models.OrderInput) (models.Response[models.Order], error) {
	if err := simulate(ctx, s.opts.Latency, s.opts.Faults, "create order"); err != nil {
		return models.Response[models.Order]{}, err
	}

	if in.Status == "" {
		in.Status = models.OrderPending
	}
	v := apperrors.NewValidationError()
	if len(in.Items) == 0 {
		v.Add("items", "items: au moins un article est requis")
	}
	for i, item := range in.Items {
		if item.Quantity < 1 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("items[%d].quantity: la quantité doit être au moins 1", i))
		}
	}
	if !in.Status.Valid() {
		v.Add("status", "status: statut de commande invalide")
	}
	if err := v.OrNil(); err != nil {
		return models.Response[models.Order]{}, err
	}

	if _, err := s.users.Get(ctx, in.UserID); err != nil {
		return models.Response[models.Order]{}, err
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for _, item := range in.Items {
		p, err := s.products.Get(ctx, item.ProductID)
		if err != nil {
			return models.Response[models.Order]{}, err
		}
		items = append(items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			Price:       p.Price,
		})
		line := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}

	now := s.opts.Now()
	o := models.Order{
		ID:              s.opts.NewID(),
		UserID:          in.UserID,
		Items:           items,
		Total:           total.Round(2).InexactFloat64(),
		Status:          in.Status,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.save(ctx, o, s.labels.created)
}

func (s *OrderService) Update(ctx context.Context, id string, patch models.OrderPatch) (models.Response[models.Order], error) {
	if err := simulate(ctx, s.opts.Latency, s.opts.Faults, "update order"); err != nil {
		return models.Response[models.Order]{}, err
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Response[models.Order]{}, err
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			v := apperrors.NewValidationError()
			v.Add("status", "status: statut de commande invalide")
			return models.Response[models.Order]{}, v
		}
		o.Status = *patch.Status
	}
	if patch.ShippingAddress != nil {
		o.ShippingAddress = *patch.ShippingAddress
	}

	o.UpdatedAt = later(s.opts.Now(), o.UpdatedAt)
	return s.save(ctx, o, s.labels.updated)
}

func (s *OrderService) Delete(ctx context.Context, id string) (models.Response[*models.Order], error) {
	return s.remove(ctx, id)
}
