package domain

import "time"

// Product is a storefront item. Products are addressed by slug on the read
// path; renaming a product changes its slug, so both the old and new slug
// cache entries must be invalidated on update.
type Product struct {
	ID          string    `json:"id" dynamodbav:"ProductID"`
	Title       string    `json:"title" dynamodbav:"Title"`
	Slug        string    `json:"slug" dynamodbav:"Slug"`
	Description string    `json:"description,omitempty" dynamodbav:"Description,omitempty"`
	PriceCents  int64     `json:"priceCents" dynamodbav:"PriceCents"`
	Currency    string    `json:"currency" dynamodbav:"Currency"`
	Stock       int       `json:"stock" dynamodbav:"Stock"`
	Images      []string  `json:"images,omitempty" dynamodbav:"Images,omitempty"`
	Category    string    `json:"category,omitempty" dynamodbav:"Category,omitempty"`
	Active      bool      `json:"active" dynamodbav:"Active"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// InStock reports whether the requested quantity can be fulfilled.
func (p *Product) InStock(qty int) bool {
	return p.Active && qty > 0 && p.Stock >= qty
}
