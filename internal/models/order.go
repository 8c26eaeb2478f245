package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderItem fige le prix du produit au moment de la commande.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	Total           float64     `json:"total"`
	Status          OrderStatus `json:"status"`
	ShippingAddress Address     `json:"shippingAddress"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (o Order) GetID() string { return o.ID }

func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	return c
}

type OrderItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderInput struct {
	UserID          string           `json:"userId"`
	Items           []OrderItemInput `json:"items"`
	Status          OrderStatus      `json:"status,omitempty"`
	ShippingAddress Address          `json:"shippingAddress"`
}

// OrderPatch ne permet pas de modifier les lignes : le total est figé à la création.
type OrderPatch struct {
	Status          *OrderStatus `json:"status,omitempty"`
	ShippingAddress *Address     `json:"shippingAddress,omitempty"`
}
