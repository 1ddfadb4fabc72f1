package models

import "time"

// Package is a vendor-defined bookable bundle embedded in a listing.
type Package struct {
	ID            string                `bson:"id" json:"id"`
	Name          string                `bson:"name" json:"name"`
	Description   string                `bson:"description,omitempty" json:"description,omitempty"`
	OriginalPrice *float64              `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Price         *float64              `bson:"price,omitempty" json:"price,omitempty"`
	Discount      float64               `bson:"discount,omitempty" json:"discount,omitempty"` // percent
	Capacity      int                   `bson:"capacity,omitempty" json:"capacity,omitempty"`
	Meals         map[string]MealPrices `bson:"meals,omitempty" json:"meals,omitempty"`
	IsActive      bool                  `bson:"isActive" json:"isActive"`
}

// Listing is a vendor's published service offering with its packages.
type Listing struct {
	ID          string    `bson:"listingid" json:"id"`
	VendorID    string    `bson:"vendorId" json:"vendorId"`
	VendorName  string    `bson:"vendorName,omitempty" json:"vendorName,omitempty"`
	Category    string    `bson:"category" json:"category"` // catering, photography, dj, decoration, cakes, travel
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Location    string    `bson:"location,omitempty" json:"location,omitempty"`
	Images      []string  `bson:"images,omitempty" json:"images,omitempty"`
	Packages    []Package `bson:"packages,omitempty" json:"packages,omitempty"`
	IsActive    bool      `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Review is post-completion customer feedback on an order.
type Review struct {
	ReviewID  string    `bson:"reviewid" json:"reviewId"`
	OrderID   string    `bson:"orderId" json:"orderId"`
	UserID    string    `bson:"userId" json:"userId"`
	VendorID  string    `bson:"vendorId" json:"vendorId"`
	Rating    int       `bson:"rating" json:"rating"` // 1-5
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
