package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"evenza/db"
	"evenza/filemgr"
	"evenza/models"
	"evenza/mq"
	"evenza/notifications"
	"evenza/orders"
	"evenza/rdx"
	"evenza/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AcquireSubmitLock takes a short Redis lock keyed on the order so a
// double-clicked submit cannot create two pending records.
func AcquireSubmitLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	return rdx.Conn.SetNX(ctx, "payment_lock:"+orderID, "1", ttl).Result()
}

func ReleaseSubmitLock(ctx context.Context, orderID string) {
	if err := rdx.Conn.Del(ctx, "payment_lock:"+orderID).Err(); err != nil {
		log.Printf("ReleaseSubmitLock: failed for order %s, err=%v", orderID, err)
	}
}

// POST /api/orders/:orderid/payments
// Multipart form: paymentType (full|partial), amount, transactionId, plus an
// optional screenshot file as proof.
func SubmitPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderid")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	// Guest checkouts have no session; the email they booked with stands in.
	userID := utils.GetUserIDFromRequest(r)
	email := utils.GetEmailFromRequest(r)
	if email == "" {
		email = r.FormValue("email")
	}
	if userID == "" && email == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var order models.Order
	err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if (userID == "" || order.CustomerID != userID) && (email == "" || order.CustomerEmail != email) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	ok, err := AcquireSubmitLock(ctx, orderID, 30*time.Second)
	if err != nil {
		log.Printf("SubmitPayment: lock error for order %s: %v", orderID, err)
	} else if !ok {
		http.Error(w, "a payment for this order is already being submitted", http.StatusConflict)
		return
	}
	defer ReleaseSubmitLock(ctx, orderID)

	screenshotURL := ""
	if file, header, ferr := r.FormFile("screenshot"); ferr == nil {
		defer file.Close()
		if !filemgr.IsSupportedImage(header) {
			http.Error(w, "unsupported screenshot type", http.StatusBadRequest)
			return
		}
		screenshotURL, err = filemgr.SaveUploadedImage(file, header, filemgr.DirScreenshots)
		if err != nil {
			http.Error(w, "failed to store screenshot", http.StatusInternalServerError)
			return
		}
		if _, terr := filemgr.SaveThumbnail(screenshotURL); terr != nil {
			log.Printf("SubmitPayment: thumbnail failed for %s: %v", screenshotURL, terr)
		}
	}

	submission, err := BuildSubmission(&order,
		r.FormValue("paymentType"),
		utils.ParseFloat(r.FormValue("amount")),
		r.FormValue("transactionId"),
		screenshotURL,
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := db.PendingPaymentsCollection.InsertOne(ctx, submission); err != nil {
		http.Error(w, "failed to record payment", http.StatusInternalServerError)
		return
	}

	// Fire-and-forget: the submission stands even if the vendor never sees
	// this notification.
	if err := notifications.Create(ctx, order.VendorID,
		"Payment submitted",
		fmt.Sprintf("%s submitted a payment of %.2f (txn %s) for order %s",
			order.CustomerName, submission.Amount, submission.TransactionID, orderID),
		"payment_submitted",
		map[string]interface{}{
			"paymentId": submission.ID,
			"orderId":   orderID,
			"amount":    submission.Amount,
		},
	); err != nil {
		log.Printf("SubmitPayment: vendor notification failed for order %s: %v", orderID, err)
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "payment": submission})
}

// POST /api/payments/:id/approve
// Vendor confirms the funds arrived. The status flip is compare-and-swap on
// pending_review so two reviewers cannot apply the same submission twice.
func ApproveSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resolveSubmission(w, r, ps, true)
}

// POST /api/payments/:id/reject
func RejectSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resolveSubmission(w, r, ps, false)
}

func resolveSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params, approve bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	paymentID := ps.ByName("id")
	vendorID := utils.GetUserIDFromRequest(r)
	if vendorID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	newStatus := StatusApproved
	if !approve {
		newStatus = StatusRejected
	}
	now := time.Now().UTC()

	// ReturnDocument Before: ApplyApproval checks the pre-swap state.
	res := db.PendingPaymentsCollection.FindOneAndUpdate(ctx,
		bson.M{"id": paymentID, "vendorId": vendorID, "status": StatusPendingReview},
		bson.M{"$set": bson.M{"status": newStatus, "resolvedAt": now, "resolvedBy": vendorID}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	)

	var submission models.PendingPayment
	if err := res.Decode(&submission); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusConflict, ErrAlreadyResolved.Error())
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": submission.OrderID}).Decode(&order); err != nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	if approve {
		if err := applyApprovalToOrder(ctx, &order, &submission, vendorID); err != nil {
			http.Error(w, "failed to update order balance", http.StatusInternalServerError)
			return
		}
	} else {
		event := orders.Annotate(&order,
			fmt.Sprintf("Payment of %.2f rejected (txn %s)", submission.Amount, submission.TransactionID),
			orders.ActorVendor, nil)
		_, err := db.OrdersCollection.UpdateOne(ctx, bson.M{"orderid": order.OrderID}, bson.M{
			"$set":  bson.M{"paymentStatus": StatusAfterRejection(&order), "updatedAt": order.UpdatedAt},
			"$push": bson.M{"timeline": event},
		})
		if err != nil {
			http.Error(w, "failed to update order", http.StatusInternalServerError)
			return
		}
	}

	title, notifType := "Payment approved", "payment_approved"
	if !approve {
		title, notifType = "Payment rejected", "payment_rejected"
	}
	if err := notifications.Create(ctx, order.CustomerID, title,
		fmt.Sprintf("Your payment of %.2f for order %s was %s", submission.Amount, order.OrderID, newStatus),
		notifType,
		map[string]interface{}{"paymentId": submission.ID, "orderId": order.OrderID},
	); err != nil {
		log.Printf("resolveSubmission: customer notification failed for order %s: %v", order.OrderID, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "status": newStatus})
}

// applyApprovalToOrder folds the approved amount into the order's balances
// and appends the matching timeline entry, all in one document write.
func applyApprovalToOrder(ctx context.Context, order *models.Order, submission *models.PendingPayment, vendorID string) error {
	patch, err := ApplyApproval(order, submission)
	if err != nil {
		return err
	}

	meta := &models.EventMetadata{Amount: submission.Amount, PaymentMethod: submission.PaymentType}
	desc := fmt.Sprintf("Payment of %.2f received", submission.Amount)

	event, err := orders.Apply(order, orders.StatusPaymentReceived, desc, orders.ActorVendor, meta)
	if errors.Is(err, orders.ErrInvalidTransition) || errors.Is(err, orders.ErrTerminalState) {
		// Order is not sitting in payment_pending; record the money without
		// moving the status.
		event = orders.Annotate(order, desc, orders.ActorVendor, meta)
		err = nil
	}
	if err != nil {
		return err
	}

	_, err = db.OrdersCollection.UpdateOne(ctx, bson.M{"orderid": order.OrderID}, bson.M{
		"$set": bson.M{
			"paidAmount":      patch.PaidAmount,
			"remainingAmount": patch.RemainingAmount,
			"paymentStatus":   patch.PaymentStatus,
			"paymentVerified": patch.PaymentVerified,
			"lastPayment":     patch.LastPayment,
			"status":          order.Status,
			"updatedAt":       order.UpdatedAt,
		},
		"$push": bson.M{"timeline": event},
	})
	if err != nil {
		return err
	}

	mq.EmitOrderUpdate(ctx, mq.OrderUpdate{
		OrderID:     order.OrderID,
		Status:      order.Status,
		Description: desc,
		UpdatedBy:   orders.ActorVendor,
		Amount:      submission.Amount,
	})
	return nil
}

// GET /api/vendor/payments/pending
func ListPendingSubmissions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vendorID := utils.GetUserIDFromRequest(r)
	if vendorID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	subs, err := utils.FindAndDecode[models.PendingPayment](ctx, db.PendingPaymentsCollection,
		bson.M{"vendorId": vendorID, "status": StatusPendingReview}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve submissions")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "payments": subs})
}
