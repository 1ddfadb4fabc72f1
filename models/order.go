package models

import "time"

// MealPrices holds the per-meal price variants a catering package may carry.
// Loosely-typed upstream data means any of these can be absent.
type MealPrices struct {
	Original   *float64 `bson:"original,omitempty" json:"original,omitempty"`
	Price      *float64 `bson:"price,omitempty" json:"price,omitempty"`
	Discounted *float64 `bson:"discounted,omitempty" json:"discounted,omitempty"`
}

// MealSelection maps meal name (breakfast/lunch/dinner) to chosen or not.
type MealSelection map[string]bool

// PackageRef is the pricing snapshot of a package copied into an order at
// booking time.
type PackageRef struct {
	ID            string                `bson:"id" json:"id"`
	Name          string                `bson:"name,omitempty" json:"name,omitempty"`
	Category      string                `bson:"category,omitempty" json:"category,omitempty"`
	OriginalPrice *float64              `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Price         *float64              `bson:"price,omitempty" json:"price,omitempty"`
	Discount      float64               `bson:"discount,omitempty" json:"discount,omitempty"` // percent
	Meals         map[string]MealPrices `bson:"meals,omitempty" json:"meals,omitempty"`
}

// EventMetadata is the optional payload attached to a timeline entry.
type EventMetadata struct {
	VendorName     string  `bson:"vendorName,omitempty" json:"vendorName,omitempty"`
	Amount         float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	PaymentMethod  string  `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	TrackingNumber string  `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes          string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// TrackingEvent is one entry in an order's append-only timeline.
type TrackingEvent struct {
	ID          string         `bson:"id" json:"id"`
	Status      string         `bson:"status" json:"status"`
	Timestamp   time.Time      `bson:"timestamp" json:"timestamp"`
	Description string         `bson:"description" json:"description"`
	UpdatedBy   string         `bson:"updatedBy" json:"updatedBy"` // customer, vendor, admin, system
	Metadata    *EventMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// PaymentSnapshot records the most recent payment submission on an order.
type PaymentSnapshot struct {
	Amount        float64   `bson:"amount" json:"amount"`
	TransactionID string    `bson:"transactionId" json:"transactionId"`
	ScreenshotURL string    `bson:"screenshotUrl,omitempty" json:"screenshotUrl,omitempty"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}

// Order is a customer's booking of one vendor's packages.
type Order struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	OrderID string `bson:"orderid" json:"orderId"`

	CustomerID    string `bson:"customerId" json:"customerId"`
	CustomerName  string `bson:"customerName,omitempty" json:"customerName,omitempty"`
	CustomerEmail string `bson:"customerEmail,omitempty" json:"customerEmail,omitempty"`
	VendorID      string `bson:"vendorId" json:"vendorId"`
	VendorName    string `bson:"vendorName,omitempty" json:"vendorName,omitempty"`

	EventDate        string `bson:"eventDate,omitempty" json:"eventDate,omitempty"`
	EventLocation    string `bson:"eventLocation,omitempty" json:"eventLocation,omitempty"`
	EventDescription string `bson:"eventDescription,omitempty" json:"eventDescription,omitempty"`
	GuestCount       int    `bson:"guestCount,omitempty" json:"guestCount,omitempty"`
	SelectedTimeSlot string `bson:"selectedTimeSlot,omitempty" json:"selectedTimeSlot,omitempty"`

	SelectedPackages []PackageRef             `bson:"selectedPackages,omitempty" json:"selectedPackages,omitempty"`
	SelectedMeals    map[string]MealSelection `bson:"selectedMeals,omitempty" json:"selectedMeals,omitempty"`

	OriginalPrice   *float64 `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	NegotiatedPrice *float64 `bson:"negotiatedPrice,omitempty" json:"negotiatedPrice,omitempty"`
	UserBudget      *float64 `bson:"userBudget,omitempty" json:"userBudget,omitempty"`
	ConvenienceFee  float64  `bson:"convenienceFee,omitempty" json:"convenienceFee,omitempty"`
	IsNegotiated    bool     `bson:"isNegotiated,omitempty" json:"isNegotiated,omitempty"`
	FinalSource     string   `bson:"finalSource,omitempty" json:"finalSource,omitempty"` // actual, negotiated, budget

	TotalAmount     float64          `bson:"totalAmount" json:"totalAmount"`
	PaidAmount      float64          `bson:"paidAmount" json:"paidAmount"`
	RemainingAmount float64          `bson:"remainingAmount" json:"remainingAmount"`
	PaymentStatus   string           `bson:"paymentStatus" json:"paymentStatus"` // pending, paid, failed, unpaid
	PaymentVerified bool             `bson:"paymentVerified,omitempty" json:"paymentVerified,omitempty"`
	LastPayment     *PaymentSnapshot `bson:"lastPayment,omitempty" json:"lastPayment,omitempty"`

	Status         string          `bson:"status" json:"status"`
	AcceptedVendor string          `bson:"acceptedVendor,omitempty" json:"acceptedVendor,omitempty"`
	Timeline       []TrackingEvent `bson:"timeline,omitempty" json:"timeline,omitempty"`

	Rating int    `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5, set after completion
	Review string `bson:"review,omitempty" json:"review,omitempty"`
	Notes  string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
