// Package listings manages vendor service listings and their embedded
// packages, which orders snapshot at booking time.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"evenza/db"
	"evenza/filemgr"
	"evenza/models"
	"evenza/rdx"
	"evenza/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var validCategories = map[string]bool{
	"catering":    true,
	"photography": true,
	"dj":          true,
	"decoration":  true,
	"cakes":       true,
	"travel":      true,
}

func cacheKey(listingID string) string {
	return "listing:" + listingID
}

// POST /api/listings
func CreateListing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vendorID := utils.GetUserIDFromRequest(r)
	if vendorID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var listing models.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if listing.Title == "" || !validCategories[listing.Category] {
		http.Error(w, "missing title or unknown category", http.StatusBadRequest)
		return
	}

	listing.ID = utils.GenerateRandomString(16)
	listing.VendorID = vendorID
	listing.IsActive = true
	listing.CreatedAt = time.Now().UTC()
	listing.UpdatedAt = listing.CreatedAt
	for i := range listing.Packages {
		if listing.Packages[i].ID == "" {
			listing.Packages[i].ID = utils.GetUUID()
		}
		listing.Packages[i].IsActive = true
	}

	if _, err := db.ListingsCollection.InsertOne(ctx, listing); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "listing": listing})
}

// GET /api/listings/:id
func GetListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := ps.ByName("id")

	if cached, err := rdx.RdxGet(cacheKey(listingID)); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var listing models.Listing
	err := db.ListingsCollection.FindOne(ctx, bson.M{"listingid": listingID}).Decode(&listing)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if data, err := json.Marshal(utils.M{"ok": true, "listing": listing}); err == nil {
		_ = rdx.RdxSetTTL(cacheKey(listingID), string(data), 5*time.Minute)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "listing": listing})
}

// GET /api/listings
func ListListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{"isActive": true}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}
	if vendorID := r.URL.Query().Get("vendorId"); vendorID != "" {
		filter["vendorId"] = vendorID
		delete(filter, "isActive") // vendors see their inactive listings too
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	sort := utils.ParseSort(r.URL.Query().Get("sort"),
		bson.D{{Key: "createdAt", Value: -1}},
		map[string]bool{"createdAt": true, "title": true})
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(sort)

	listings, err := utils.FindAndDecode[models.Listing](ctx, db.ListingsCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve listings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "listings": listings})
}

// PUT /api/listings/:id
func EditListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	listingID := ps.ByName("id")
	vendorID := utils.GetUserIDFromRequest(r)

	var patch struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Location    *string `json:"location"`
		IsActive    *bool   `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}

	res, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{"listingid": listingID, "vendorId": vendorID},
		bson.M{"$set": set},
	)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}

	_ = rdx.RdxDel(cacheKey(listingID))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// POST /api/listings/:id/packages
func AddPackage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	listingID := ps.ByName("id")
	vendorID := utils.GetUserIDFromRequest(r)

	var pkg models.Package
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil || pkg.Name == "" {
		http.Error(w, "invalid package", http.StatusBadRequest)
		return
	}
	if pkg.ID == "" {
		pkg.ID = utils.GetUUID()
	}
	pkg.IsActive = true

	res, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{"listingid": listingID, "vendorId": vendorID},
		bson.M{
			"$push": bson.M{"packages": pkg},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}

	_ = rdx.RdxDel(cacheKey(listingID))
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "package": pkg})
}

// DELETE /api/listings/:id/packages/:packageid
// Packages referenced by orders keep their pricing snapshot there, so
// deactivation is enough; the package is never removed from history.
func DeactivatePackage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	listingID := ps.ByName("id")
	vendorID := utils.GetUserIDFromRequest(r)

	res, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{"listingid": listingID, "vendorId": vendorID, "packages.id": ps.ByName("packageid")},
		bson.M{"$set": bson.M{
			"packages.$.isActive": false,
			"updatedAt":           time.Now().UTC(),
		}},
	)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "package not found", http.StatusNotFound)
		return
	}

	_ = rdx.RdxDel(cacheKey(listingID))
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/listings/:id/images
func UploadListingImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	listingID := ps.ByName("id")
	vendorID := utils.GetUserIDFromRequest(r)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !filemgr.IsSupportedImage(header) {
		http.Error(w, "unsupported image type", http.StatusBadRequest)
		return
	}

	url, err := filemgr.SaveUploadedImage(file, header, filemgr.DirListings)
	if err != nil {
		http.Error(w, "failed to store image", http.StatusInternalServerError)
		return
	}
	if _, terr := filemgr.SaveThumbnail(url); terr != nil {
		log.Printf("UploadListingImage: thumbnail failed for %s: %v", url, terr)
	}

	res, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{"listingid": listingID, "vendorId": vendorID},
		bson.M{
			"$push": bson.M{"images": url},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}

	_ = rdx.RdxDel(cacheKey(listingID))
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "url": url})
}
