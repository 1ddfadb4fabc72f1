package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"evenza/db"
	"evenza/models"
	"evenza/mq"
	"evenza/notifications"
	"evenza/pricing"
	"evenza/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// conveniencePct is the flat-percentage surcharge added to every order total.
var conveniencePct = func() float64 {
	if v := utils.ParseFloat(os.Getenv("CONVENIENCE_FEE_PCT")); v > 0 {
		return v
	}
	return 2
}()

func genOrderID() string {
	return utils.GenerateRandomDigitString(16)
}

type createOrderRequest struct {
	VendorID         string                          `json:"vendorId"`
	VendorName       string                          `json:"vendorName"`
	CustomerName     string                          `json:"customerName"`
	CustomerEmail    string                          `json:"customerEmail"`
	EventDate        string                          `json:"eventDate"`
	EventLocation    string                          `json:"eventLocation"`
	EventDescription string                          `json:"eventDescription"`
	GuestCount       int                             `json:"guestCount"`
	SelectedTimeSlot string                          `json:"selectedTimeSlot"`
	SelectedPackages []models.PackageRef             `json:"selectedPackages"`
	SelectedMeals    map[string]models.MealSelection `json:"selectedMeals"`
	NegotiatedPrice  *float64                        `json:"negotiatedPrice"`
	UserBudget       *float64                        `json:"userBudget"`
	FinalSource      string                          `json:"finalSource"`
	Notes            string                          `json:"notes"`
}

// POST /api/orders
func CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.VendorID == "" || len(req.SelectedPackages) == 0 {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	// Guest checkout: no session, but the order must carry an email so the
	// customer can find it again.
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" && req.CustomerEmail == "" {
		http.Error(w, "customerEmail is required for guest orders", http.StatusUnauthorized)
		return
	}

	original := pricing.ResolveTotal(req.SelectedPackages, req.SelectedMeals)

	source := req.FinalSource
	if source == "" {
		source = pricing.SourceActual
	}
	base, err := pricing.SelectFinal(&original, req.NegotiatedPrice, req.UserBudget, source)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	total := pricing.ApplyConvenienceFee(base, conveniencePct)
	now := time.Now().UTC()

	order := models.Order{
		OrderID:          genOrderID(),
		CustomerID:       userID,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		VendorID:         req.VendorID,
		VendorName:       req.VendorName,
		EventDate:        req.EventDate,
		EventLocation:    req.EventLocation,
		EventDescription: req.EventDescription,
		GuestCount:       req.GuestCount,
		SelectedTimeSlot: req.SelectedTimeSlot,
		SelectedPackages: req.SelectedPackages,
		SelectedMeals:    req.SelectedMeals,
		OriginalPrice:    &original,
		NegotiatedPrice:  req.NegotiatedPrice,
		UserBudget:       req.UserBudget,
		ConvenienceFee:   total - base,
		IsNegotiated:     source == pricing.SourceNegotiated,
		FinalSource:      source,
		TotalAmount:      total,
		PaidAmount:       0,
		RemainingAmount:  total,
		PaymentStatus:    "unpaid",
		Status:           string(StatusOrderPlaced),
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	order.Timeline = []models.TrackingEvent{
		NewTrackingEvent(StatusOrderPlaced, "Order placed", ActorCustomer, nil),
	}

	if _, err := db.OrdersCollection.InsertOne(ctx, order); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if err := notifications.Create(ctx, order.VendorID, "New order",
		fmt.Sprintf("New order %s for %s", order.OrderID, order.EventDate),
		"order_placed",
		map[string]interface{}{"orderId": order.OrderID, "amount": order.TotalAmount},
	); err != nil {
		log.Printf("CreateOrder: vendor notification failed for order %s: %v", order.OrderID, err)
	}
	mq.EmitOrderUpdate(ctx, mq.OrderUpdate{OrderID: order.OrderID, Status: order.Status, UpdatedBy: ActorCustomer})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "order": order})
}

// GET /api/orders/:orderid
func GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": ps.ByName("orderid")}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	email := utils.GetEmailFromRequest(r)
	if email == "" {
		email = r.URL.Query().Get("email")
	}
	owner := userID != "" && (order.CustomerID == userID || order.VendorID == userID)
	guest := email != "" && order.CustomerEmail == email
	if !owner && !guest {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	SortTimeline(order.Timeline)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"ok":           true,
		"order":        order,
		"simpleStatus": Status(order.Status).Simple(),
	})
}

// GET /api/orders
// Customer view. Authenticated sessions filter by customerId; guest-style
// sessions fall back to the customerEmail they checked out with.
func ListMyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if userID := utils.GetUserIDFromRequest(r); userID != "" {
		filter["customerId"] = userID
	} else if email := r.URL.Query().Get("email"); email != "" {
		filter["customerEmail"] = email
	} else {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	listOrders(ctx, w, r, filter)
}

// GET /api/vendor/orders
func ListVendorOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vendorID := utils.GetUserIDFromRequest(r)
	if vendorID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter := bson.M{"vendorId": vendorID}
	if simple := r.URL.Query().Get("status"); simple != "" {
		filter["status"] = bson.M{"$in": statusesForSimple(simple)}
	}

	listOrders(ctx, w, r, filter)
}

// listOrders runs the filter newest-first. Sorting falls back to memory when
// the supporting index is missing so listings degrade instead of erroring.
func listOrders(ctx context.Context, w http.ResponseWriter, r *http.Request, filter bson.M) {
	skip, limit := utils.ParsePagination(r, 20, 100)

	// The unsorted fallback fetches the full set; skip/limit are applied
	// after the in-memory sort so the page matches the server-sorted one.
	run := func(ctx context.Context, sorted bool) ([]models.Order, error) {
		opts := options.Find()
		if sorted {
			opts.SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
		}
		return utils.FindAndDecode[models.Order](ctx, db.OrdersCollection, filter, opts)
	}

	results, err := utils.FindWithSortFallback(ctx, run, func(a, b models.Order) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}, skip, limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "orders": results})
}

// statusesForSimple expands a terse status to the fine-grained statuses that
// project onto it.
func statusesForSimple(simple string) []string {
	var out []string
	for s := range transitions {
		if s.Simple() == simple {
			out = append(out, string(s))
		}
	}
	return out
}

type statusUpdateRequest struct {
	Status      string                `json:"status"`
	Description string                `json:"description"`
	Metadata    *models.EventMetadata `json:"metadata"`
}

// PUT /api/orders/:orderid/status
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, "missing status", http.StatusBadRequest)
		return
	}
	transitionOrder(w, r, ps.ByName("orderid"), Status(req.Status), req.Description, req.Metadata)
}

// POST /api/orders/:orderid/cancel
func CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	transitionOrder(w, r, ps.ByName("orderid"), StatusCancelled, "Order cancelled", nil)
}

// POST /api/orders/:orderid/complete
func CompleteOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	transitionOrder(w, r, ps.ByName("orderid"), StatusCompleted, "Order completed", nil)
}

func transitionOrder(w http.ResponseWriter, r *http.Request, orderID string, to Status, description string, meta *models.EventMetadata) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
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

	actor := actorFor(&order, userID, utils.GetRoleFromRequest(r))
	if actor == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if description == "" {
		description = fmt.Sprintf("Status changed to %s", to)
	}

	event, err := Apply(&order, to, description, actor, meta)
	if err != nil {
		switch {
		case errors.Is(err, ErrActorNotAllowed):
			utils.RespondWithError(w, http.StatusForbidden, err.Error())
		default:
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	// Timeline append and status change land in one document write.
	_, err = db.OrdersCollection.UpdateOne(ctx, bson.M{"orderid": orderID}, bson.M{
		"$set":  bson.M{"status": order.Status, "updatedAt": order.UpdatedAt},
		"$push": bson.M{"timeline": event},
	})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	notifyCounterpart(ctx, &order, actor, description)
	mq.EmitOrderUpdate(ctx, mq.OrderUpdate{
		OrderID:     orderID,
		Status:      order.Status,
		Description: description,
		UpdatedBy:   actor,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "order": order, "event": event})
}

type noteRequest struct {
	Description string                `json:"description"`
	Metadata    *models.EventMetadata `json:"metadata"`
}

// POST /api/orders/:orderid/notes
// Informational timeline entry; the order's status does not move.
func AddOrderNote(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		http.Error(w, "missing description", http.StatusBadRequest)
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

	actor := actorFor(&order, userID, utils.GetRoleFromRequest(r))
	if actor == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	event := Annotate(&order, req.Description, actor, req.Metadata)
	_, err = db.OrdersCollection.UpdateOne(ctx, bson.M{"orderid": orderID}, bson.M{
		"$set":  bson.M{"updatedAt": order.UpdatedAt},
		"$push": bson.M{"timeline": event},
	})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "event": event})
}

// POST /api/orders/:orderid/accept
// Vendor claims an open request. The id may live in the legacy event-request
// queue or in orders; whichever holds it is updated.
func AcceptOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	vendorID := utils.GetUserIDFromRequest(r)
	if vendorID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		VendorName string `json:"vendorName"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.VendorName == "" {
		body.VendorName = vendorID
	}

	result, err := acceptAcrossSources(ctx, ps.ByName("orderid"), vendorID, body.VendorName, defaultSources())
	if errors.Is(err, ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTerminalState) {
		utils.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if err := notifications.Create(ctx, result.Order.CustomerID, "Order accepted",
		fmt.Sprintf("%s accepted your order %s", body.VendorName, result.Order.OrderID),
		"order_accepted",
		map[string]interface{}{"orderId": result.Order.OrderID},
	); err != nil {
		log.Printf("AcceptOrder: customer notification failed for order %s: %v", result.Order.OrderID, err)
	}
	mq.EmitOrderUpdate(ctx, mq.OrderUpdate{
		OrderID:   result.Order.OrderID,
		Status:    result.Order.Status,
		UpdatedBy: ActorVendor,
	})

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "source": result.Source, "order": result.Order})
}

type ratingRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// POST /api/orders/:orderid/rating
func RateOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating < 1 || req.Rating > 5 {
		http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
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
	if order.CustomerID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if Status(order.Status) != StatusCompleted {
		utils.RespondWithError(w, http.StatusBadRequest, "only completed orders can be rated")
		return
	}

	now := time.Now().UTC()
	_, err = db.OrdersCollection.UpdateOne(ctx, bson.M{"orderid": orderID}, bson.M{
		"$set": bson.M{"rating": req.Rating, "review": req.Review, "updatedAt": now},
	})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	review := models.Review{
		ReviewID:  utils.GenerateRandomString(16),
		OrderID:   orderID,
		UserID:    userID,
		VendorID:  order.VendorID,
		Rating:    req.Rating,
		Comment:   req.Review,
		CreatedAt: now,
	}
	if _, err := db.ReviewsCollection.InsertOne(ctx, review); err != nil {
		log.Printf("RateOrder: review insert failed for order %s: %v", orderID, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "review": review})
}

// actorFor maps the requesting user to the actor recorded on timeline
// entries. Admin role wins, then vendor/customer ownership of the order.
func actorFor(order *models.Order, userID string, roles []string) string {
	for _, role := range roles {
		if role == "admin" {
			return ActorAdmin
		}
	}
	if order.VendorID == userID || order.AcceptedVendor == userID {
		return ActorVendor
	}
	if order.CustomerID == userID {
		return ActorCustomer
	}
	return ""
}

func notifyCounterpart(ctx context.Context, order *models.Order, actor, description string) {
	target := order.CustomerID
	if actor == ActorCustomer {
		target = order.VendorID
	}
	if target == "" {
		return
	}
	if err := notifications.Create(ctx, target, "Order update",
		fmt.Sprintf("Order %s: %s", order.OrderID, description),
		"order_update",
		map[string]interface{}{"orderId": order.OrderID, "status": order.Status},
	); err != nil {
		log.Printf("notifyCounterpart: notification failed for order %s: %v", order.OrderID, err)
	}
}
