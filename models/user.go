package models

import "time"

// User is an authenticated account; Role distinguishes customers from
// vendors (a user can hold both).
type User struct {
	UserID        string    `bson:"userid" json:"userid"`
	Username      string    `bson:"username" json:"username"`
	Email         string    `bson:"email" json:"email"`
	Password      string    `bson:"password" json:"-"` // bcrypt hash
	Role          []string  `bson:"role" json:"role"`  // customer, vendor, admin
	RefreshToken  string    `bson:"refresh_token,omitempty" json:"-"`
	RefreshExpiry time.Time `bson:"refresh_expiry,omitempty" json:"-"`
	LastLogin     time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// Notification is a fire-and-forget message delivered to one user.
type Notification struct {
	ID        string                 `bson:"id" json:"id"`
	UserID    string                 `bson:"userId" json:"userId"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Type      string                 `bson:"type" json:"type"` // payment_submitted, payment_approved, order_update, ...
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	IsRead    bool                   `bson:"isRead" json:"isRead"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}
