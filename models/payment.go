package models

import "time"

// PendingPayment is a customer-submitted payment awaiting vendor review.
// Submissions carry manual proof (screenshot + reference id) and are only
// applied to the order balance once the vendor approves them.
type PendingPayment struct {
	ID            string     `bson:"id" json:"id"`
	OrderID       string     `bson:"orderId" json:"orderId"`
	VendorID      string     `bson:"vendorId" json:"vendorId"`
	CustomerID    string     `bson:"customerId,omitempty" json:"customerId,omitempty"`
	CustomerName  string     `bson:"customerName,omitempty" json:"customerName,omitempty"`
	Amount        float64    `bson:"amount" json:"amount"`
	TransactionID string     `bson:"transactionId" json:"transactionId"`
	ScreenshotURL string     `bson:"screenshotUrl,omitempty" json:"screenshotUrl,omitempty"`
	PaymentType   string     `bson:"paymentType" json:"paymentType"` // full, partial
	Status        string     `bson:"status" json:"status"`           // pending_review, approved, rejected
	SubmittedAt   time.Time  `bson:"submittedAt" json:"submittedAt"`
	ResolvedAt    *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy    string     `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
}

// IdempotencyRecord represents an idempotency key record stored in Mongo.
type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	UserID      string                 `bson:"userid" json:"userid"`
	RequestHash string                 `bson:"request_hash" json:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at" json:"expires_at"`
}
