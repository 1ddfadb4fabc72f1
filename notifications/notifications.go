package notifications

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"evenza/db"
	"evenza/models"
	"evenza/mq"
	"evenza/rdx"
	"evenza/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func unreadKey(userID string) string {
	return "notif:unread:" + userID
}

// Create stores a notification and emits it for live delivery. Callers treat
// this as fire-and-forget: a failure is logged and returned but must not roll
// back the action that triggered it.
func Create(ctx context.Context, userID, title, message, notifType string, data map[string]interface{}) error {
	n := models.Notification{
		ID:        utils.GetUUID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := db.NotificationsCollection.InsertOne(ctx, n); err != nil {
		log.Printf("notifications: insert failed for user %s: %v", userID, err)
		return err
	}

	if _, err := rdx.RdxIncr(unreadKey(userID)); err != nil {
		log.Printf("notifications: unread counter bump failed for user %s: %v", userID, err)
	}
	mq.EmitNotification(ctx, n)
	return nil
}

// GET /api/notifications
func GetNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	notifs, err := utils.FindAndDecode[models.Notification](ctx, db.NotificationsCollection, bson.M{"userId": userID}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve notifications")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "notifications": notifs})
}

// GET /api/notifications/unread
func GetUnreadCount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if cached, err := rdx.RdxGet(unreadKey(userID)); err == nil && cached != "" {
		count, _ := strconv.ParseInt(cached, 10, 64)
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"count": count})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.NotificationsCollection.CountDocuments(ctx, bson.M{"userId": userID, "isRead": false})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}
	_ = rdx.RdxSet(unreadKey(userID), strconv.FormatInt(count, 10))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"count": count})
}

// PUT /api/notifications/:id/read
func MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	notifID := ps.ByName("id")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.NotificationsCollection.UpdateOne(ctx,
		bson.M{"id": notifID, "userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	if res.ModifiedCount > 0 {
		_ = rdx.RdxDel(unreadKey(userID))
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
