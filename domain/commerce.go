package domain

import "time"

// CartItem is a line in a cart. Price is snapshotted at add time so the
// cart total does not silently shift under the shopper.
type CartItem struct {
	ProductID      string `json:"productId" dynamodbav:"ProductID"`
	Title          string `json:"title" dynamodbav:"Title"`
	Slug           string `json:"slug" dynamodbav:"Slug"`
	UnitPriceCents int64  `json:"unitPriceCents" dynamodbav:"UnitPriceCents"`
	Quantity       int    `json:"quantity" dynamodbav:"Quantity"`
}

// Cart is the per-user shopping cart. One cart per user, keyed by user ID.
type Cart struct {
	UserID    string     `json:"userId" dynamodbav:"UserID"`
	Items     []CartItem `json:"items" dynamodbav:"Items"`
	UpdatedAt time.Time  `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// TotalCents sums the cart lines.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.UnitPriceCents * int64(it.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// CanTransitionTo enforces the forward-only order lifecycle. Cancellation is
// allowed until the order ships.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPaid || next == OrderCancelled
	case OrderPaid:
		return next == OrderShipped || next == OrderCancelled
	case OrderShipped:
		return next == OrderDelivered
	default:
		return false
	}
}

// Order is an immutable snapshot of a cart at checkout time plus its
// lifecycle status. Payment capture itself happens in an external gateway.
type Order struct {
	ID         string      `json:"id" dynamodbav:"OrderID"`
	UserID     string      `json:"userId" dynamodbav:"UserID"`
	Items      []CartItem  `json:"items" dynamodbav:"Items"`
	TotalCents int64       `json:"totalCents" dynamodbav:"TotalCents"`
	Currency   string      `json:"currency" dynamodbav:"Currency"`
	Status     OrderStatus `json:"status" dynamodbav:"Status"`
	Shipping   Address     `json:"shipping" dynamodbav:"Shipping"`
	CreatedAt  time.Time   `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt  time.Time   `json:"updatedAt" dynamodbav:"UpdatedAt"`
}
