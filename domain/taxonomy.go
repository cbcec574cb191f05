package domain

import "time"

// Category groups blogs and products for navigation and filtering.
type Category struct {
	ID          string    `json:"id" dynamodbav:"CategoryID"`
	Name        string    `json:"name" dynamodbav:"Name"`
	Slug        string    `json:"slug" dynamodbav:"Slug"`
	Description string    `json:"description,omitempty" dynamodbav:"Description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}

// Tag is a free-form label attached to blog posts.
type Tag struct {
	ID        string    `json:"id" dynamodbav:"TagID"`
	Name      string    `json:"name" dynamodbav:"Name"`
	Slug      string    `json:"slug" dynamodbav:"Slug"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}
