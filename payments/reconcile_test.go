package payments

import (
	"testing"

	"evenza/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWithBalance(total, paid float64) *models.Order {
	return &models.Order{
		OrderID:         "o1",
		VendorID:        "v1",
		CustomerID:      "c1",
		TotalAmount:     total,
		PaidAmount:      paid,
		RemainingAmount: total - paid,
		PaymentStatus:   PaymentPending,
	}
}

func TestBuildSubmissionRequiresTransactionID(t *testing.T) {
	_, err := BuildSubmission(orderWithBalance(1000, 0), TypeFull, 0, "", "")
	assert.ErrorIs(t, err, ErrMissingTransactionID)
}

func TestBuildSubmissionFullUsesRemaining(t *testing.T) {
	p, err := BuildSubmission(orderWithBalance(1000, 400), TypeFull, 9999, "txn-1", "/uploads/screenshots/a.jpg")
	require.NoError(t, err)

	// caller-supplied amount is ignored for full payments
	assert.Equal(t, 600.0, p.Amount)
	assert.Equal(t, StatusPendingReview, p.Status)
	assert.Equal(t, "o1", p.OrderID)
	assert.Equal(t, "v1", p.VendorID)
}

func TestBuildSubmissionFullWithNothingDue(t *testing.T) {
	_, err := BuildSubmission(orderWithBalance(1000, 1000), TypeFull, 0, "txn-1", "")
	assert.ErrorIs(t, err, ErrNothingDue)
}

func TestBuildSubmissionPartialValidatesAmount(t *testing.T) {
	for _, amount := range []float64{0, -50} {
		_, err := BuildSubmission(orderWithBalance(1000, 0), TypePartial, amount, "txn-1", "")
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %v", amount)
	}

	p, err := BuildSubmission(orderWithBalance(1000, 0), TypePartial, 250, "txn-1", "")
	require.NoError(t, err)
	assert.Equal(t, 250.0, p.Amount)
}

func TestBuildSubmissionUnknownType(t *testing.T) {
	_, err := BuildSubmission(orderWithBalance(1000, 0), "installment", 100, "txn-1", "")
	assert.ErrorIs(t, err, ErrUnknownPaymentType)
}

func TestApplyApprovalPartial(t *testing.T) {
	order := orderWithBalance(1000, 0)
	p := &models.PendingPayment{Amount: 400, TransactionID: "txn-1", Status: StatusPendingReview}

	patch, err := ApplyApproval(order, p)
	require.NoError(t, err)

	assert.Equal(t, 400.0, patch.PaidAmount)
	assert.Equal(t, 600.0, patch.RemainingAmount)
	assert.Equal(t, PaymentPending, patch.PaymentStatus)
	assert.False(t, patch.PaymentVerified)
	assert.Equal(t, "txn-1", patch.LastPayment.TransactionID)
}

func TestApplyApprovalSettlesOrder(t *testing.T) {
	order := orderWithBalance(1000, 600)
	p := &models.PendingPayment{Amount: 400, TransactionID: "txn-2", Status: StatusPendingReview}

	patch, err := ApplyApproval(order, p)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, patch.PaidAmount)
	assert.Equal(t, 0.0, patch.RemainingAmount)
	assert.Equal(t, PaymentPaid, patch.PaymentStatus)
	assert.True(t, patch.PaymentVerified)
}

func TestApplyApprovalOverpaymentClampsToZero(t *testing.T) {
	order := orderWithBalance(1000, 800)
	p := &models.PendingPayment{Amount: 500, TransactionID: "txn-3", Status: StatusPendingReview}

	patch, err := ApplyApproval(order, p)
	require.NoError(t, err)

	assert.Equal(t, 1300.0, patch.PaidAmount)
	assert.Equal(t, 0.0, patch.RemainingAmount)
	assert.Equal(t, PaymentPaid, patch.PaymentStatus)
}

func TestApplyApprovalRejectsResolvedSubmission(t *testing.T) {
	order := orderWithBalance(1000, 0)
	for _, status := range []string{StatusApproved, StatusRejected} {
		p := &models.PendingPayment{Amount: 100, Status: status}
		_, err := ApplyApproval(order, p)
		assert.ErrorIs(t, err, ErrAlreadyResolved, "status %s", status)
	}
}

func TestStatusAfterRejection(t *testing.T) {
	outstanding := orderWithBalance(1000, 400)
	assert.Equal(t, PaymentFailed, StatusAfterRejection(outstanding))

	// stale second submission rejected after the order settled
	settled := orderWithBalance(1000, 1000)
	settled.PaymentStatus = PaymentPaid
	assert.Equal(t, PaymentPaid, StatusAfterRejection(settled))
}

// remainingAmount must always equal max(total - paid, 0) after any approval
// sequence, regardless of how the amount is split.
func TestApprovalSequenceKeepsBalanceInvariant(t *testing.T) {
	order := orderWithBalance(1000, 0)
	for _, amount := range []float64{100, 250, 400, 250} {
		p := &models.PendingPayment{Amount: amount, TransactionID: "txn", Status: StatusPendingReview}
		patch, err := ApplyApproval(order, p)
		require.NoError(t, err)

		want := order.TotalAmount - patch.PaidAmount
		if want < 0 {
			want = 0
		}
		assert.Equal(t, want, patch.RemainingAmount)

		order.PaidAmount = patch.PaidAmount
		order.RemainingAmount = patch.RemainingAmount
		order.PaymentStatus = patch.PaymentStatus
	}

	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, 0.0, order.RemainingAmount)
}
