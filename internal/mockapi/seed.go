package mockapi

import (
	"context"
	"fmt"
	"log"

	"codpage_back_end/internal/database"
	"codpage_back_end/internal/models"
)

// API regroupe les trois ressources du mock e-commerce.
type API struct {
	Users    *UserService
	Products *ProductService
	Orders   *OrderService
}

// Repositories : un dépôt par collection.
type Repositories struct {
	Users    database.Repository[models.User]
	Products database.Repository[models.Product]
	Orders   database.Repository[models.Order]
}

func MemoryRepositories() Repositories {
	return Repositories{
		Users:    database.NewMemoryRepository[models.User]("utilisateur"),
		Products: database.NewMemoryRepository[models.Product]("produit"),
		Orders:   database.NewMemoryRepository[models.Order]("commande"),
	}
}

func New(repos Repositories, indexer Indexer, opts Options) *API {
	return &API{
		Users:    NewUserService(repos.Users, opts),
		Products: NewProductService(repos.Products, indexer, opts),
		Orders:   NewOrderService(repos.Orders, repos.Users, repos.Products, opts),
	}
}

// Seed charge un jeu de données de démonstration si la collection des utilisateurs est vide.
// Les services sont appelés directement : l'injection de fautes doit être désactivée.
func (a *API) Seed(ctx context.Context) error {
	existing, err := a.Users.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("ℹ️ Données déjà présentes (%d utilisateurs), seed ignoré", len(existing))
		return nil
	}

	users := []models.UserInput{
		{Name: "Aarav Sharma", Email: "aarav@example.com", Role: models.RoleAdmin},
		{Name: "Priya Patel", Email: "priya@example.com", Role: models.RoleUser},
		{Name: "Rohan Gupta", Email: "rohan@example.com", Role: models.RoleModerator},
		{Name: "Sneha Iyer", Email: "sneha@example.com", Role: models.RoleUser},
	}
	products := []models.ProductInput{
		{Name: "Wireless Earbuds", Description: "Bluetooth 5.3 earbuds with 30h battery", Price: 1499, Category: "electronics", Stock: 120},
		{Name: "Cotton Kurta", Description: "Hand block printed cotton kurta", Price: 899, Category: "fashion", Stock: 60},
		{Name: "Vitamin C Serum", Description: "Brightening face serum, 30ml", Price: 549, Category: "beauty", Stock: 200},
		{Name: "Smart Watch", Description: "AMOLED fitness smart watch", Price: 3999, Category: "electronics", Stock: 45},
		{Name: "Yoga Mat", Description: "6mm anti-slip yoga mat", Price: 699, Category: "sports", Stock: 80},
	}

	userIDs := make([]string, 0, len(users))
	for _, in := range users {
		res, err := a.Users.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed utilisateur %s: %w", in.Email, err)
		}
		userIDs = append(userIDs, res.Data.ID)
	}

	productIDs := make([]string, 0, len(products))
	for _, in := range products {
		res, err := a.Products.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed produit %s: %w", in.Name, err)
		}
		productIDs = append(productIDs, res.Data.ID)
	}

	orders := []models.OrderInput{
		{
			UserID:          userIDs[1],
			Items:           []models.OrderItemInput{{ProductID: productIDs[0], Quantity: 1}, {ProductID: productIDs[2], Quantity: 2}},
			ShippingAddress: models.Address{Street: "12 MG Road", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"},
		},
		{
			UserID:          userIDs[3],
			Items:           []models.OrderItemInput{{ProductID: productIDs[3], Quantity: 1}},
			Status:          models.OrderShipped,
			ShippingAddress: models.Address{Street: "4 Anna Salai", City: "Chennai", State: "TN", PostalCode: "600002", Country: "IN"},
		},
	}
	for _, in := range orders {
		if _, err := a.Orders.Create(ctx, in); err != nil {
			return fmt.Errorf("seed commande: %w", err)
		}
	}

	log.Printf("🌱 Seed: %d utilisateurs, %d produits, %d commandes", len(users), len(products), len(orders))
	return nil
}
