package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection            *mongo.Collection
	ListingsCollection        *mongo.Collection
	OrdersCollection          *mongo.Collection
	EventRequestsCollection   *mongo.Collection
	PendingPaymentsCollection *mongo.Collection
	NotificationsCollection   *mongo.Collection
	ReviewsCollection         *mongo.Collection
	IdempotencyCollection     *mongo.Collection
	Client                    *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("evenzadb")
	UserCollection = database.Collection("users")
	ListingsCollection = database.Collection("listings")
	OrdersCollection = database.Collection("orders")
	EventRequestsCollection = database.Collection("eventrequests")
	PendingPaymentsCollection = database.Collection("pendingpayments")
	NotificationsCollection = database.Collection("notifications")
	ReviewsCollection = database.Collection("reviews")
	IdempotencyCollection = database.Collection("idempotency")
}
