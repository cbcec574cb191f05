package domain

import "time"

// Role identifies the authorization level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the canonical account record. Tokens are issued by an external
// identity provider; this backend only validates them and keeps the profile.
type User struct {
	ID        string    `json:"id" dynamodbav:"UserID"`
	Email     string    `json:"email" dynamodbav:"Email"`
	Name      string    `json:"name" dynamodbav:"Name"`
	Role      Role      `json:"role" dynamodbav:"Role"`
	Bio       string    `json:"bio,omitempty" dynamodbav:"Bio,omitempty"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Address is a shipping/billing address owned by a user.
type Address struct {
	ID         string `json:"id" dynamodbav:"AddressID"`
	UserID     string `json:"userId" dynamodbav:"UserID"`
	Label      string `json:"label" dynamodbav:"Label"`
	Line1      string `json:"line1" dynamodbav:"Line1"`
	Line2      string `json:"line2,omitempty" dynamodbav:"Line2,omitempty"`
	City       string `json:"city" dynamodbav:"City"`
	Region     string `json:"region,omitempty" dynamodbav:"Region,omitempty"`
	PostalCode string `json:"postalCode" dynamodbav:"PostalCode"`
	Country    string `json:"country" dynamodbav:"Country"`
	Phone      string `json:"phone,omitempty" dynamodbav:"Phone,omitempty"`
	IsDefault  bool   `json:"isDefault" dynamodbav:"IsDefault"`
}
