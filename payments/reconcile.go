// Package payments records customer payment submissions and gates the
// vendor's approval step. Proof is manual (screenshot + reference id), so
// nothing touches an order's balance until a vendor approves the submission.
package payments

import (
	"errors"
	"time"

	"evenza/models"

	"github.com/google/uuid"
)

// Payment types a customer may submit.
const (
	TypeFull    = "full"
	TypePartial = "partial"
)

// Submission states.
const (
	StatusPendingReview = "pending_review"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
)

// Order-level payment states.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentUnpaid  = "unpaid"
)

var (
	ErrMissingTransactionID = errors.New("transaction id is required")
	ErrInvalidAmount        = errors.New("partial payment amount must be positive")
	ErrUnknownPaymentType   = errors.New("payment type must be full or partial")
	ErrNothingDue           = errors.New("order has no remaining balance")
	ErrAlreadyResolved      = errors.New("payment submission already resolved")
)

// BuildSubmission validates a customer's payment submission and produces the
// PendingPayment record to store. It never mutates the order; balances move
// only on approval.
func BuildSubmission(order *models.Order, paymentType string, amount float64, transactionID, screenshotURL string) (models.PendingPayment, error) {
	if transactionID == "" {
		return models.PendingPayment{}, ErrMissingTransactionID
	}

	switch paymentType {
	case TypeFull:
		if order.RemainingAmount <= 0 {
			return models.PendingPayment{}, ErrNothingDue
		}
		amount = order.RemainingAmount
	case TypePartial:
		if amount <= 0 {
			return models.PendingPayment{}, ErrInvalidAmount
		}
	default:
		return models.PendingPayment{}, ErrUnknownPaymentType
	}

	return models.PendingPayment{
		ID:            uuid.New().String(),
		OrderID:       order.OrderID,
		VendorID:      order.VendorID,
		CustomerID:    order.CustomerID,
		CustomerName:  order.CustomerName,
		Amount:        amount,
		TransactionID: transactionID,
		ScreenshotURL: screenshotURL,
		PaymentType:   paymentType,
		Status:        StatusPendingReview,
		SubmittedAt:   time.Now().UTC(),
	}, nil
}

// StatusAfterRejection picks the order-level payment status after a rejected
// submission. A rejection only marks the order failed while a balance is
// outstanding; a stale submission rejected after the order settled must not
// downgrade paid.
func StatusAfterRejection(order *models.Order) string {
	if order.RemainingAmount > 0 {
		return PaymentFailed
	}
	return order.PaymentStatus
}

// OrderPatch is the balance state an approval derives. All fields are
// persisted in the same write as each other so remainingAmount can never
// drift from its inputs.
type OrderPatch struct {
	PaidAmount      float64
	RemainingAmount float64
	PaymentStatus   string
	PaymentVerified bool
	LastPayment     models.PaymentSnapshot
}

// ApplyApproval folds an approved submission into the order's balances:
// paidAmount grows by the submission amount, remainingAmount is recomputed as
// max(total - paid, 0), and paymentStatus flips to paid once nothing remains.
func ApplyApproval(order *models.Order, p *models.PendingPayment) (OrderPatch, error) {
	if p.Status != StatusPendingReview {
		return OrderPatch{}, ErrAlreadyResolved
	}

	paid := order.PaidAmount + p.Amount
	remaining := order.TotalAmount - paid
	if remaining < 0 {
		remaining = 0
	}

	status := PaymentPending
	if remaining == 0 {
		status = PaymentPaid
	}

	return OrderPatch{
		PaidAmount:      paid,
		RemainingAmount: remaining,
		PaymentStatus:   status,
		PaymentVerified: remaining == 0,
		LastPayment: models.PaymentSnapshot{
			Amount:        p.Amount,
			TransactionID: p.TransactionID,
			ScreenshotURL: p.ScreenshotURL,
			Timestamp:     time.Now().UTC(),
		},
	}, nil
}
