package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evenza/db"
	"evenza/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrOrderNotFound = errors.New("order not found")

// Source is one collection an order id may live in. Two sources exist for
// historical reasons: the legacy event-request queue and the orders
// collection proper. Accepting must work against whichever holds the id.
type Source struct {
	Name string
	Find func(ctx context.Context, id string) (*models.Order, error)
	Save func(ctx context.Context, id string, event models.TrackingEvent, vendorID string, at time.Time) error
}

// AcceptResult reports which source held the accepted order.
type AcceptResult struct {
	Source string
	Order  *models.Order
}

// acceptAcrossSources resolves the id against each source in turn and
// accepts the first match. Sources not holding the id are left untouched.
func acceptAcrossSources(ctx context.Context, id, vendorID, vendorName string, sources []Source) (AcceptResult, error) {
	for _, src := range sources {
		order, err := src.Find(ctx, id)
		if errors.Is(err, ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return AcceptResult{}, err
		}

		event, err := Apply(order, StatusVendorAccepted,
			fmt.Sprintf("Order accepted by %s", vendorName),
			ActorVendor, &models.EventMetadata{VendorName: vendorName})
		if err != nil {
			return AcceptResult{}, err
		}
		order.AcceptedVendor = vendorID

		if err := src.Save(ctx, id, event, vendorID, order.UpdatedAt); err != nil {
			return AcceptResult{}, err
		}
		return AcceptResult{Source: src.Name, Order: order}, nil
	}
	return AcceptResult{}, ErrOrderNotFound
}

func mongoSource(name string, coll *mongo.Collection) Source {
	return Source{
		Name: name,
		Find: func(ctx context.Context, id string) (*models.Order, error) {
			var order models.Order
			err := coll.FindOne(ctx, bson.M{"orderid": id}).Decode(&order)
			if err == mongo.ErrNoDocuments {
				return nil, ErrOrderNotFound
			}
			if err != nil {
				return nil, err
			}
			return &order, nil
		},
		Save: func(ctx context.Context, id string, event models.TrackingEvent, vendorID string, at time.Time) error {
			_, err := coll.UpdateOne(ctx, bson.M{"orderid": id}, bson.M{
				"$set": bson.M{
					"status":         string(StatusVendorAccepted),
					"acceptedVendor": vendorID,
					"updatedAt":      at,
				},
				"$push": bson.M{"timeline": event},
			})
			return err
		},
	}
}

// defaultSources: the legacy request queue first, then orders.
func defaultSources() []Source {
	return []Source{
		mongoSource("eventrequests", db.EventRequestsCollection),
		mongoSource("orders", db.OrdersCollection),
	}
}
